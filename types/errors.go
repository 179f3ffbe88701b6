package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Settlement engine sentinel errors.
//
// Validation errors are rejected before any mutation and are recoverable by
// retrying with corrected input. Authorization and state errors leave all
// state unchanged. Cross-chain failures are not errors at all: they surface
// as a status transition to Failed.
var (
	// validation
	ErrInvalidAmount     = errorsmod.Register(ModuleName, 2, "amount must be greater than zero")
	ErrInvalidHashlock   = errorsmod.Register(ModuleName, 3, "hashlock must be 64 hex characters")
	ErrDuplicateHashlock = errorsmod.Register(ModuleName, 4, "an order with this hashlock already exists")
	ErrInvalidTimelock   = errorsmod.Register(ModuleName, 5, "timelock outside configured bounds")
	ErrInvalidStages     = errorsmod.Register(ModuleName, 6, "stage durations must be positive")
	ErrInvalidMinFill    = errorsmod.Register(ModuleName, 7, "invalid minimum fill amount")
	ErrFillTooSmall      = errorsmod.Register(ModuleName, 8, "fill amount below order minimum")
	ErrFillTooLarge      = errorsmod.Register(ModuleName, 9, "fill amount exceeds remaining amount")
	ErrPartialsDisabled  = errorsmod.Register(ModuleName, 10, "order does not accept partial fills")
	ErrPartialsOnly      = errorsmod.Register(ModuleName, 11, "order accepts partial fills; settle fills individually")
	ErrInvalidSecret     = errorsmod.Register(ModuleName, 12, "secret does not match hashlock")

	// authorization
	ErrUnauthorized = errorsmod.Register(ModuleName, 13, "signer not authorized for the current stage")

	// state
	ErrOrderNotFound      = errorsmod.Register(ModuleName, 14, "order not found")
	ErrFillNotFound       = errorsmod.Register(ModuleName, 15, "fill not found")
	ErrDepositNotFound    = errorsmod.Register(ModuleName, 16, "safety deposit not found")
	ErrAlreadyCompleted   = errorsmod.Register(ModuleName, 17, "order already completed")
	ErrAlreadyCancelled   = errorsmod.Register(ModuleName, 18, "order already cancelled")
	ErrOrderFailed        = errorsmod.Register(ModuleName, 19, "order failed; only a refund is possible")
	ErrFillProcessed      = errorsmod.Register(ModuleName, 20, "fill already processed")
	ErrTimelockExpired    = errorsmod.Register(ModuleName, 21, "timelock already expired")
	ErrTimelockNotExpired = errorsmod.Register(ModuleName, 22, "timelock not expired")
	ErrNotFinalized       = errorsmod.Register(ModuleName, 23, "order has not reached finality")
	ErrPendingAck         = errorsmod.Register(ModuleName, 24, "order is awaiting a cross-chain acknowledgement")
	ErrOrderCommitted     = errorsmod.Register(ModuleName, 30, "order fully committed; nothing left to fill")

	// external collaborators
	ErrChainNotSupported    = errorsmod.Register(ModuleName, 25, "destination chain not supported")
	ErrInsufficientDeposit  = errorsmod.Register(ModuleName, 26, "insufficient safety deposit")
	ErrSafetyDepositUnused  = errorsmod.Register(ModuleName, 27, "order does not require a safety deposit")
	ErrTransportUnavailable = errorsmod.Register(ModuleName, 28, "cross-chain transport not configured")
	ErrOrderActive          = errorsmod.Register(ModuleName, 29, "order still active")
)
