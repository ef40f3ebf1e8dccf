// -- cmd/agent.go --
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keyflow/internal/config"
	"github.com/xkilldash9x/keyflow/internal/observability"
	"github.com/xkilldash9x/keyflow/internal/remote"
)

// newAgentCmd creates the `agent` command: connect to a controller and type
// whatever it commands.
func newAgentCmd() *cobra.Command {
	var (
		attachURL string
		pageURL   string
	)

	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Run a typing agent driven by a remote controller",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("remote.server", cmd.Flags().Lookup("server")); err != nil {
				return err
			}
			return viper.BindPFlag("injection.backend", cmd.Flags().Lookup("backend"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			sinks, err := buildSinks(ctx, cfg, attachURL, pageURL, logger)
			if err != nil {
				return err
			}
			defer sinks.Close()

			agent := remote.NewAgent(cfg.Remote.Server, sinks, buildEngineOptions(cfg), cfg.Session, logger)
			logger.Info("agent starting",
				zap.String("server", cfg.Remote.Server),
				zap.String("backend", cfg.Injection.Backend))
			return agent.Run(ctx)
		},
	}

	agentCmd.Flags().String("server", "ws://127.0.0.1:8077/ws", "controller websocket URL")
	agentCmd.Flags().String("backend", "desktop", "injection backend: desktop, browser, capture")
	agentCmd.Flags().StringVar(&attachURL, "attach", "", "DevTools websocket URL of a running Chrome (browser backend)")
	agentCmd.Flags().StringVar(&pageURL, "url", "", "page to open before typing (browser backend)")
	return agentCmd
}
