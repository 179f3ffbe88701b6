package service

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dymensionxyz/cosmosclient/cosmosclient"

	"github.com/fusionswap/settlement-engine/api"
	"github.com/fusionswap/settlement-engine/api/handlers"
	"github.com/fusionswap/settlement-engine/bank"
	"github.com/fusionswap/settlement-engine/config"
	"github.com/fusionswap/settlement-engine/engine"
	"github.com/fusionswap/settlement-engine/relayer"
	"github.com/fusionswap/settlement-engine/store"
)

// Client wires the settlement engine to the chain, the archive store and
// the HTTP API.
type Client struct {
	logger *zap.Logger
	config config.Config

	engine   *engine.Engine
	escrow   *bank.Service
	eventer  *relayer.Eventer
	archiver *archiver
	server   api.Server
}

func NewClient(cfg config.Config, logger *zap.Logger) (*Client, error) {
	sdkcfg := sdk.GetConfig()
	sdkcfg.SetBech32PrefixForAccount(config.HubAddressPrefix, config.PubKeyPrefix)

	subscriberID := fmt.Sprintf("settlement-engine-%s", uuid.New().String()[0:5])

	hubClient, err := getHubClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub client: %w", err)
	}

	if err := setupOperatorAccount(hubClient, cfg.Operator, logger); err != nil {
		return nil, err
	}

	escrow, err := bank.NewService(hubClient, cfg.Operator.AccountName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create escrow service: %w", err)
	}

	transport, err := relayer.NewTransport(hubClient, cfg.Operator.AccountName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	params, err := engineParams(cfg.Engine)
	if err != nil {
		return nil, err
	}

	eng := engine.New(params, escrow, logger, engine.WithTransport(transport))

	for _, chain := range cfg.Chains {
		if err := eng.UpsertChain(params.Owner, engine.ChainConfig{
			ChainID:          chain.ChainID,
			Name:             chain.Name,
			Channel:          chain.Channel,
			Active:           chain.Active,
			FeeMultiplierBps: chain.FeeMultiplierBps,
		}); err != nil {
			return nil, fmt.Errorf("failed to register chain %d: %w", chain.ChainID, err)
		}
	}

	eventer := relayer.NewEventer(hubClient, subscriberID, eng, logger)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.DBPath))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	archive := store.NewSettlementStore(mongoClient)

	server := api.NewServer(
		handlers.NewOrderHandler(eng),
		handlers.NewRegistryHandler(eng),
		cfg.ServerAddress,
		logger,
	)

	return &Client{
		logger:   logger,
		config:   cfg,
		engine:   eng,
		escrow:   escrow,
		eventer:  eventer,
		archiver: newArchiver(eng, archive, cfg.Engine.ArchiveInterval, logger),
		server:   server,
	}, nil
}

// setupOperatorAccount makes sure the signing key exists before any service
// tries to use it: restored from the configured mnemonic when one is given,
// created fresh otherwise.
func setupOperatorAccount(c cosmosclient.Client, op config.OperatorConfig, logger *zap.Logger) error {
	if op.Mnemonic != "" {
		if err := bank.ImportAccount(c, op.AccountName, op.Mnemonic); err != nil {
			return fmt.Errorf("failed to import operator account: %w", err)
		}
		return nil
	}

	created, mnemonic, err := bank.EnsureAccount(c, op.AccountName)
	if err != nil {
		return fmt.Errorf("failed to ensure operator account: %w", err)
	}
	if created {
		logger.Info("created operator account; fund it before settling orders",
			zap.String("name", op.AccountName),
			zap.String("mnemonic", mnemonic))
	}
	return nil
}

// Engine exposes the settlement engine for programmatic use.
func (c *Client) Engine() *engine.Engine {
	return c.engine
}

func (c *Client) Start(ctx context.Context) error {
	balances, err := c.escrow.SpendableBalances(ctx)
	switch {
	case err != nil:
		c.logger.Warn("failed to query escrow balances", zap.Error(err))
	case balances.IsZero():
		c.logger.Warn("escrow account holds no funds",
			zap.String("address", c.escrow.Address()))
	default:
		c.logger.Info("escrow account funded",
			zap.String("address", c.escrow.Address()),
			zap.String("balances", balances.String()))
	}

	c.logger.Info("starting acknowledgement eventer...")
	if err := c.eventer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start eventer: %w", err)
	}

	c.logger.Info("starting archiver...")
	c.archiver.start(ctx)

	c.logger.Info("starting api server...")
	go c.server.Start()

	<-ctx.Done()
	return nil
}

func engineParams(cfg config.EngineConfig) (engine.Params, error) {
	params := engine.DefaultParams()
	params.Owner = cfg.Owner
	params.Treasury = cfg.Treasury
	if cfg.ProtocolFeeBps > 0 {
		params.ProtocolFeeBps = cfg.ProtocolFeeBps
	}
	if cfg.MinTimelock > 0 {
		params.MinTimelock = cfg.MinTimelock
	}
	if cfg.MaxTimelock > 0 {
		params.MaxTimelock = cfg.MaxTimelock
	}
	if cfg.TransferTimeout > 0 {
		params.TransferTimeout = cfg.TransferTimeout
	}

	switch engine.SecretScope(cfg.SecretScope) {
	case engine.SecretScopeOrder, engine.SecretScopeFill:
		params.SecretScope = engine.SecretScope(cfg.SecretScope)
	case "":
	default:
		return engine.Params{}, fmt.Errorf("invalid secret scope: %s", cfg.SecretScope)
	}

	return params, nil
}

func getHubClient(cfg config.Config) (cosmosclient.Client, error) {
	hubClientCfg := config.ClientConfig{
		HomeDir:        cfg.Operator.KeyringDir,
		NodeAddress:    cfg.NodeAddress,
		GasFees:        cfg.Gas.Fees,
		GasPrices:      cfg.Gas.Prices,
		KeyringBackend: cfg.Operator.KeyringBackend,
	}

	hubClient, err := cosmosclient.New(config.GetCosmosClientOptions(hubClientCfg)...)
	if err != nil {
		return cosmosclient.Client{}, fmt.Errorf("failed to create cosmos client: %w", err)
	}

	return hubClient, nil
}
