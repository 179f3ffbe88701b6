package config

import (
	"log"
	"time"

	"github.com/ignite/cli/ignite/pkg/cosmosaccount"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/dymensionxyz/cosmosclient/cosmosclient"
)

type Config struct {
	NodeAddress   string    `mapstructure:"node_address"`
	DBPath        string    `mapstructure:"db_path"`
	ServerAddress string    `mapstructure:"server_address"`
	Gas           GasConfig `mapstructure:"gas"`

	Operator OperatorConfig `mapstructure:"operator"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Chains   []ChainConfig  `mapstructure:"chains"`

	LogLevel string `mapstructure:"log_level"`
}

type GasConfig struct {
	Prices string `mapstructure:"prices"`
	Fees   string `mapstructure:"fees"`
}

// OperatorConfig names the escrow account that signs settlement payouts and
// outgoing transfers. When Mnemonic is set the key is restored from it on
// startup; otherwise a missing key is created and its mnemonic logged once.
type OperatorConfig struct {
	AccountName    string                       `mapstructure:"account_name"`
	Mnemonic       string                       `mapstructure:"mnemonic"`
	KeyringBackend cosmosaccount.KeyringBackend `mapstructure:"keyring_backend"`
	KeyringDir     string                       `mapstructure:"keyring_dir"`
}

// EngineConfig carries the settlement rules.
type EngineConfig struct {
	Owner           string        `mapstructure:"owner"`
	Treasury        string        `mapstructure:"treasury"`
	ProtocolFeeBps  uint32        `mapstructure:"protocol_fee_bps"`
	MinTimelock     time.Duration `mapstructure:"min_timelock"`
	MaxTimelock     time.Duration `mapstructure:"max_timelock"`
	SecretScope     string        `mapstructure:"secret_scope"`
	TransferTimeout time.Duration `mapstructure:"transfer_timeout"`
	ArchiveInterval time.Duration `mapstructure:"archive_interval"`
}

// ChainConfig declares a destination chain reachable over an IBC channel.
type ChainConfig struct {
	ChainID          uint32 `mapstructure:"chain_id"`
	Name             string `mapstructure:"name"`
	Channel          string `mapstructure:"channel"`
	Active           bool   `mapstructure:"active"`
	FeeMultiplierBps uint32 `mapstructure:"fee_multiplier_bps"`
}

const (
	defaultNodeAddress = "http://localhost:36657"
	defaultDBPath      = "mongodb://localhost:27017"
	HubAddressPrefix   = "dym"
	PubKeyPrefix       = "pub"
	defaultLogLevel    = "info"
	defaultHubDenom    = "adym"
	defaultGasFees     = "3000000000000000" + defaultHubDenom
	testKeyringBackend = "test"

	defaultOperatorAccountName = "settler"
	defaultProtocolFeeBps      = 50
	defaultMinTimelock         = time.Hour
	defaultMaxTimelock         = 30 * 24 * time.Hour
	defaultTransferTimeout     = 10 * time.Minute
	defaultArchiveInterval     = 30 * time.Second
)

func InitConfig() {
	// Find home directory.
	home, err := homedir.Dir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}
	defaultHomeDir := home + "/.settlement-engine"

	viper.SetDefault("server_address", ":8000")
	viper.SetDefault("log_level", defaultLogLevel)
	viper.SetDefault("node_address", defaultNodeAddress)
	viper.SetDefault("db_path", defaultDBPath)

	viper.SetDefault("gas.fees", defaultGasFees)

	viper.SetDefault("operator.account_name", defaultOperatorAccountName)
	viper.SetDefault("operator.keyring_backend", testKeyringBackend)
	viper.SetDefault("operator.keyring_dir", defaultHomeDir)

	viper.SetDefault("engine.protocol_fee_bps", defaultProtocolFeeBps)
	viper.SetDefault("engine.min_timelock", defaultMinTimelock)
	viper.SetDefault("engine.max_timelock", defaultMaxTimelock)
	viper.SetDefault("engine.secret_scope", "order")
	viper.SetDefault("engine.transfer_timeout", defaultTransferTimeout)
	viper.SetDefault("engine.archive_interval", defaultArchiveInterval)

	viper.SetConfigType("yaml")
	if CfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(CfgFile)
	} else {
		CfgFile = defaultHomeDir + "/config.yaml"
		viper.AddConfigPath(defaultHomeDir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}
}

var CfgFile string

type ClientConfig struct {
	HomeDir        string
	NodeAddress    string
	GasFees        string
	GasPrices      string
	FeeGranter     string
	KeyringBackend cosmosaccount.KeyringBackend
}

func GetCosmosClientOptions(config ClientConfig) []cosmosclient.Option {
	options := []cosmosclient.Option{
		cosmosclient.WithAddressPrefix(HubAddressPrefix),
		cosmosclient.WithHome(config.HomeDir),
		cosmosclient.WithNodeAddress(config.NodeAddress),
		cosmosclient.WithFees(config.GasFees),
		cosmosclient.WithGas(cosmosclient.GasAuto),
		cosmosclient.WithGasPrices(config.GasPrices),
		cosmosclient.WithKeyringBackend(config.KeyringBackend),
		cosmosclient.WithKeyringDir(config.HomeDir),
		cosmosclient.WithFeeGranter(config.FeeGranter),
	}
	return options
}
