package relayer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cosmos/cosmos-sdk/client"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	transfertypes "github.com/cosmos/ibc-go/v6/modules/apps/transfer/types"
	clienttypes "github.com/cosmos/ibc-go/v6/modules/core/02-client/types"
	channeltypes "github.com/cosmos/ibc-go/v6/modules/core/04-channel/types"
	"go.uber.org/zap"

	"github.com/dymensionxyz/cosmosclient/cosmosclient"

	"github.com/fusionswap/settlement-engine/engine"
)

// Transport sends the destination leg of a cross-chain settlement as an IBC
// transfer and reports the packet sequence the acknowledgement will carry.
type Transport struct {
	client      cosmosclient.Client
	logger      *zap.Logger
	account     client.Account
	accountName string
	srcPort     string
}

func NewTransport(c cosmosclient.Client, accountName string, logger *zap.Logger) (*Transport, error) {
	acc, err := c.AccountRegistry.GetByName(accountName)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	addr, err := acc.Record.GetAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to get account address: %w", err)
	}
	pubKey, err := acc.Record.GetPubKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get account pubkey: %w", err)
	}

	return &Transport{
		client:      c,
		logger:      logger.With(zap.String("module", "transport")),
		account:     authtypes.NewBaseAccount(addr, pubKey, 0, 0),
		accountName: accountName,
		srcPort:     transfertypes.PortID,
	}, nil
}

// SendTransfer broadcasts the transfer and extracts the packet sequence from
// the send_packet event of the resulting transaction.
func (t *Transport) SendTransfer(ctx context.Context, req engine.TransferRequest) (uint64, error) {
	msg := &transfertypes.MsgTransfer{
		SourcePort:       t.srcPort,
		SourceChannel:    req.Channel,
		Token:            req.Amount,
		Sender:           t.account.GetAddress().String(),
		Receiver:         req.Recipient,
		TimeoutHeight:    clienttypes.ZeroHeight(),
		TimeoutTimestamp: uint64(req.Timeout.UnixNano()),
	}

	resp, err := t.client.BroadcastTx(t.accountName, msg)
	if err != nil {
		return 0, fmt.Errorf("failed to broadcast transfer: %w", err)
	}

	seq, err := packetSequence(resp)
	if err != nil {
		return 0, err
	}

	t.logger.Info("transfer sent",
		zap.String("order_id", req.OrderID),
		zap.String("channel", req.Channel),
		zap.Uint64("sequence", seq))
	return seq, nil
}

func packetSequence(resp cosmosclient.Response) (uint64, error) {
	for _, ev := range resp.Events {
		if ev.Type != channeltypes.EventTypeSendPacket {
			continue
		}
		for _, attr := range ev.Attributes {
			if string(attr.Key) != channeltypes.AttributeKeySequence {
				continue
			}
			seq, err := strconv.ParseUint(string(attr.Value), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("failed to parse packet sequence: %w", err)
			}
			return seq, nil
		}
	}
	return 0, fmt.Errorf("no send_packet event in tx %s", resp.TxHash)
}
