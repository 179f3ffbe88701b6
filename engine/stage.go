package engine

import (
	"time"

	"github.com/fusionswap/settlement-engine/types"
)

// Stage is the time-derived resolution stage of an order. It is recomputed
// from the order's boundaries on every read; it never moves backwards in
// wall-clock time and terminal statuses short-circuit recomputation.
type Stage int

const (
	// StagePending precedes finality; nobody may act.
	StagePending Stage = iota
	// StageTakerExclusive grants settlement rights to the designated taker only.
	StageTakerExclusive
	// StagePrivateResolver opens settlement to the taker, the order's
	// whitelist and enabled global resolvers.
	StagePrivateResolver
	// StagePublicResolver opens settlement to anyone holding the secret.
	StagePublicResolver
	// StagePrivateCancellation lets the sender, whitelisted or global
	// resolvers reclaim the escrow.
	StagePrivateCancellation
	// StagePublicCancellation lets anyone trigger the refund to the sender.
	StagePublicCancellation
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageTakerExclusive:
		return "taker_exclusive"
	case StagePrivateResolver:
		return "private_resolver"
	case StagePublicResolver:
		return "public_resolver"
	case StagePrivateCancellation:
		return "private_cancellation"
	case StagePublicCancellation:
		return "public_cancellation"
	}
	return "unknown"
}

// Settlement reports whether withdrawals are possible in this stage.
func (s Stage) Settlement() bool {
	return s == StageTakerExclusive || s == StagePrivateResolver || s == StagePublicResolver
}

// Cancellation reports whether refunds are possible in this stage.
func (s Stage) Cancellation() bool {
	return s == StagePrivateCancellation || s == StagePublicCancellation
}

// Timelocks is the ordered boundary set of an order. Each boundary marks
// the end of the stage preceding it. PublicCancellationStart may be zero,
// in which case the private cancellation stage is final (the single-timelock
// shape, where only the sender ever reclaims).
type Timelocks struct {
	FinalityTime            time.Time
	TakerDeadline           time.Time
	PublicDeadline          time.Time
	CancellationStart       time.Time
	PublicCancellationStart time.Time
}

// StageDurations describes boundaries relative to creation time for orders
// with the full multi-stage shape.
type StageDurations struct {
	FinalityDelay       time.Duration
	TakerExclusive      time.Duration
	PrivateResolver     time.Duration
	PublicResolver      time.Duration
	PrivateCancellation time.Duration
}

// Build materializes boundary timestamps from durations. The finality delay
// may be zero; every later duration must be positive so that boundaries are
// strictly increasing.
func (d StageDurations) Build(now time.Time) (Timelocks, error) {
	if d.FinalityDelay < 0 ||
		d.TakerExclusive <= 0 ||
		d.PrivateResolver <= 0 ||
		d.PublicResolver <= 0 ||
		d.PrivateCancellation <= 0 {
		return Timelocks{}, types.ErrInvalidStages
	}
	tl := Timelocks{}
	tl.FinalityTime = now.Add(d.FinalityDelay)
	tl.TakerDeadline = tl.FinalityTime.Add(d.TakerExclusive)
	tl.PublicDeadline = tl.TakerDeadline.Add(d.PrivateResolver)
	tl.CancellationStart = tl.PublicDeadline.Add(d.PublicResolver)
	tl.PublicCancellationStart = tl.CancellationStart.Add(d.PrivateCancellation)
	return tl, nil
}

// TotalDuration is the span from creation to the last boundary, used for
// min/max timelock validation.
func (t Timelocks) TotalDuration(createdAt time.Time) time.Duration {
	last := t.PublicCancellationStart
	if last.IsZero() {
		last = t.CancellationStart
	}
	return last.Sub(createdAt)
}

// SingleTimelock expresses the classic two-state HTLC through the same
// boundary machinery: the receiver (as taker) may settle until expiry, and
// from expiry on only the sender side may reclaim.
func SingleTimelock(now, expiry time.Time) Timelocks {
	return Timelocks{
		FinalityTime:      now,
		TakerDeadline:     expiry,
		PublicDeadline:    expiry,
		CancellationStart: expiry,
		// no public cancellation window: the refund stays private forever
	}
}

// StageAt maps a point in time onto the resolution stage. A timestamp equal
// to a boundary belongs to the interval that starts at that boundary.
func StageAt(now time.Time, tl Timelocks) Stage {
	switch {
	case now.Before(tl.FinalityTime):
		return StagePending
	case now.Before(tl.TakerDeadline):
		return StageTakerExclusive
	case now.Before(tl.PublicDeadline):
		return StagePrivateResolver
	case now.Before(tl.CancellationStart):
		return StagePublicResolver
	case tl.PublicCancellationStart.IsZero() || now.Before(tl.PublicCancellationStart):
		return StagePrivateCancellation
	default:
		return StagePublicCancellation
	}
}
