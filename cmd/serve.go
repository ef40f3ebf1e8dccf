// -- cmd/serve.go --
package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/keyflow/internal/config"
	"github.com/xkilldash9x/keyflow/internal/observability"
	"github.com/xkilldash9x/keyflow/internal/remote"
)

const serveShutdownGrace = 5 * time.Second

// newServeCmd creates the `serve` command: the controller hub that agents
// connect to and operators drive over HTTP.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the controller hub for remote typing agents",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("remote.listen", cmd.Flags().Lookup("listen"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			hub := remote.NewHub(cfg.Remote, logger)
			server := &http.Server{
				Addr:    cfg.Remote.Listen,
				Handler: hub.Handler(),
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				hub.Run(gctx)
				return nil
			})
			g.Go(func() error {
				logger.Info("controller listening",
					zap.String("addr", cfg.Remote.Listen))
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownGrace)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	serveCmd.Flags().String("listen", ":8077", "controller listen address")
	return serveCmd
}
