package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	versioncmd "github.com/fusionswap/settlement-engine/cmd/version"
	"github.com/fusionswap/settlement-engine/config"
	"github.com/fusionswap/settlement-engine/service"
	utils "github.com/fusionswap/settlement-engine/utils/viper"
)

var RootCmd = &cobra.Command{
	Use:   "settlement-engine",
	Short: "Cross-chain atomic swap settlement engine",
	Long:  `Settlement engine that escrows hash-time-locked swap orders and resolves them through staged settlement and cancellation windows.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no arguments are provided, print usage information
		if len(args) == 0 {
			if err := cmd.Usage(); err != nil {
				log.Fatalf("Error printing usage: %v", err)
			}
		}
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the settlement engine",
	Long:  `Initialize the settlement engine by generating a config file with default values.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Config{}
		if err := viper.Unmarshal(&cfg); err != nil {
			log.Fatalf("failed to unmarshal config: %v", err)
		}

		// if the keyring dir doesn't exist, create it
		if _, err := os.Stat(cfg.Operator.KeyringDir); os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.Operator.KeyringDir, 0o755); err != nil {
				log.Fatalf("failed to create keyring directory: %v", err)
			}
		}

		if err := viper.WriteConfigAs(config.CfgFile); err != nil {
			log.Fatalf("failed to write config file: %v", err)
		}

		fmt.Printf("Config file created: %s\n", config.CfgFile)
		fmt.Println()
		fmt.Println("Edit the config file to set the correct values for your environment.")
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the settlement engine",
	Long:  `Start the settlement engine, the acknowledgement watcher and the API server.`,
	Run: func(cmd *cobra.Command, args []string) {
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err == nil {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}

		cfg := config.Config{}
		if err := viper.Unmarshal(&cfg); err != nil {
			log.Fatalf("failed to unmarshal config: %v", err)
		}

		logger, err := buildLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}

		// Ensure all logs are written
		defer logger.Sync() // nolint: errcheck

		client, err := service.NewClient(cfg, logger)
		if err != nil {
			log.Fatalf("failed to create settlement client: %v", err)
		}

		if err := client.Start(cmd.Context()); err != nil {
			log.Fatalf("failed to start settlement client: %v", err)
		}
	},
}

func buildLogger(logLevel string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(logLevel); err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		level,
	))

	return logger, nil
}

var setFeeCmd = &cobra.Command{
	Use:   "set-fee [bps]",
	Short: "set the protocol fee",
	Long:  `set the protocol fee in basis points charged on settled orders`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		feeBps, err := strconv.Atoi(args[0])
		if err != nil || feeBps < 0 || feeBps > 10000 {
			log.Fatalf("fee must be an integer between 0 and 10000 basis points")
		}

		home, err := homedir.Dir()
		if err != nil {
			log.Fatalf("failed to get home directory: %v", err)
		}

		defaultHomeDir := home + "/.settlement-engine"
		config.CfgFile = defaultHomeDir + "/config.yaml"

		viper.SetConfigFile(config.CfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("failed to read config file: %v", err)
		}

		if err := utils.UpdateViperConfig("engine.protocol_fee_bps", feeBps, viper.ConfigFileUsed()); err != nil {
			log.Fatalf("failed to update config file: %v", err)
		}

		fmt.Printf(
			"protocol fee successfully set to %d bps, please restart the settlement-engine process if it's running\n",
			feeBps,
		)
	},
}

func init() {
	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(setFeeCmd)

	RootCmd.AddCommand(versioncmd.Cmd())

	cobra.OnInitialize(config.InitConfig)

	RootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file")
}
