package bank

import (
	"context"
	"fmt"

	"github.com/cosmos/cosmos-sdk/client"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"go.uber.org/zap"

	"github.com/dymensionxyz/cosmosclient/cosmosclient"

	"github.com/fusionswap/settlement-engine/engine"
)

// Service moves escrowed funds on the host chain. It signs with the escrow
// account and broadcasts every batch as one transaction, so a batch settles
// all-or-nothing.
type Service struct {
	client      cosmosclient.Client
	logger      *zap.Logger
	account     client.Account
	accountName string
}

func NewService(c cosmosclient.Client, accountName string, logger *zap.Logger) (*Service, error) {
	s := &Service{
		client:      c,
		logger:      logger.With(zap.String("module", "bank")),
		accountName: accountName,
	}
	if err := s.setupAccount(); err != nil {
		return nil, fmt.Errorf("failed to setup account: %w", err)
	}
	return s, nil
}

func (s *Service) setupAccount() error {
	acc, err := s.client.AccountRegistry.GetByName(s.accountName)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	s.account = mustConvertAccount(acc.Record)

	s.logger.Debug("using escrow account",
		zap.String("name", s.accountName),
		zap.String("address", s.account.GetAddress().String()),
		zap.String("keyring-backend", s.client.AccountRegistry.Keyring.Backend()),
	)
	return nil
}

// Address is the bech32 address of the escrow account.
func (s *Service) Address() string {
	return s.account.GetAddress().String()
}

// Send broadcasts every payment as a message of a single transaction.
func (s *Service) Send(ctx context.Context, payments ...engine.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	msgs := make([]sdk.Msg, 0, len(payments))
	for _, p := range payments {
		toAddr, err := sdk.AccAddressFromBech32(p.Recipient)
		if err != nil {
			return fmt.Errorf("failed to parse address: %w", err)
		}
		msgs = append(msgs, banktypes.NewMsgSend(
			s.account.GetAddress(),
			toAddr,
			sdk.NewCoins(p.Amount),
		))
	}

	if _, err := s.client.BroadcastTx(s.accountName, msgs...); err != nil {
		return fmt.Errorf("failed to broadcast tx: %w", err)
	}

	s.logger.Debug("payments sent", zap.Int("count", len(payments)))
	return nil
}

// SpendableBalances queries all spendable balances of the escrow account.
func (s *Service) SpendableBalances(ctx context.Context) (sdk.Coins, error) {
	resp, err := banktypes.NewQueryClient(s.client.Context()).SpendableBalances(ctx, &banktypes.QuerySpendableBalancesRequest{
		Address: s.Address(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Balances, nil
}
