// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keyflow/internal/config"
	"github.com/xkilldash9x/keyflow/internal/observability"
)

var cfgFile string

// NewRootCommand builds the keyflow command tree. A fresh instance per call
// keeps flag state from leaking between test executions.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keyflow",
		Short:         "keyflow replays text as human-like keystrokes.",
		Long:          "keyflow types text into a desktop application or browser with realistic timing, typos, and corrections, locally or driven by a remote controller.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// This runs before any subcommand, setting up config and logging.
			if err := initializeConfig(); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				// Initialize a fallback logger so the error gets reported somewhere.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "keyflow"})
				return err
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("starting keyflow", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./keyflow.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newTypeCmd())
	rootCmd.AddCommand(newAgentCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the CLI under a signal-aware context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

// initializeConfig reads in the config file and KEYFLOW_ environment variables.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("keyflow")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("KEYFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars carry the day.
	}
	return nil
}
