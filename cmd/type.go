// -- cmd/type.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/xkilldash9x/keyflow/internal/config"
	"github.com/xkilldash9x/keyflow/internal/observability"
	"github.com/xkilldash9x/keyflow/internal/session"
	"github.com/xkilldash9x/keyflow/pkg/humantype"
)

const escByte = 27

// newTypeCmd creates the `type` command: read a text file and type it into
// the configured backend after a countdown.
func newTypeCmd() *cobra.Command {
	var (
		inputFile string
		attachURL string
		pageURL   string
	)

	typeCmd := &cobra.Command{
		Use:   "type",
		Short: "Type the contents of a file with human-like keystrokes",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags override config file and environment values.
			if err := viper.BindPFlag("typing.profile", cmd.Flags().Lookup("profile")); err != nil {
				return err
			}
			if err := viper.BindPFlag("typing.layout", cmd.Flags().Lookup("layout")); err != nil {
				return err
			}
			if err := viper.BindPFlag("typing.min_delay_ms", cmd.Flags().Lookup("min-delay")); err != nil {
				return err
			}
			if err := viper.BindPFlag("typing.max_delay_ms", cmd.Flags().Lookup("max-delay")); err != nil {
				return err
			}
			if err := viper.BindPFlag("typing.seed", cmd.Flags().Lookup("seed")); err != nil {
				return err
			}
			if err := viper.BindPFlag("typing.mouse_jitter", cmd.Flags().Lookup("mouse-jitter")); err != nil {
				return err
			}
			if err := viper.BindPFlag("injection.backend", cmd.Flags().Lookup("backend")); err != nil {
				return err
			}
			return viper.BindPFlag("injection.countdown_seconds", cmd.Flags().Lookup("countdown"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Re-unmarshal so the flag bindings from PreRunE land in the
			// effective config.
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			text, err := readInputFile(inputFile)
			if err != nil {
				return err
			}

			sinks, err := buildSinks(ctx, cfg, attachURL, pageURL, logger)
			if err != nil {
				return err
			}
			defer sinks.Close()

			// The session is cancellable by signal, ESC, or the watchdog.
			sessionCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			restore := watchForEscape(cancel, logger)
			defer restore()

			if err := countdown(sessionCtx, cmd, cfg.Injection.CountdownSeconds); err != nil {
				return err
			}

			opts := buildEngineOptions(cfg)
			engine := humantype.New(sinks.Keyboard, sinks.Mouse, logger, opts)
			engine.SetText(text)

			runner := session.NewRunner(engine, sinks.Keyboard, cfg.Session.WatchdogTimeout, logger)
			logger.Info("typing session starting",
				zap.String("file", inputFile),
				zap.Int("chars", len([]rune(text))),
				zap.String("profile", cfg.Typing.Profile),
				zap.String("backend", cfg.Injection.Backend))

			if err := runner.Run(sessionCtx); err != nil {
				return fmt.Errorf("typing session aborted: %w", err)
			}
			return nil
		},
	}

	typeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "file containing the text to type (required)")
	typeCmd.MarkFlagRequired("input")
	typeCmd.Flags().Int("countdown", 5, "seconds to wait before typing starts")
	typeCmd.Flags().String("profile", "human-advanced", "timing profile: human-advanced, fast-human, slow-tired, professional")
	typeCmd.Flags().String("layout", "qwerty-us", "keyboard layout for typo generation: qwerty-us, qwerty-uk, qwertz, azerty")
	typeCmd.Flags().Int("min-delay", 80, "minimum inter-chunk delay in milliseconds")
	typeCmd.Flags().Int("max-delay", 180, "maximum inter-chunk delay in milliseconds")
	typeCmd.Flags().Int64("seed", 0, "random seed for reproducible sessions (0 = time-based)")
	typeCmd.Flags().Bool("mouse-jitter", false, "drift the mouse a few pixels while typing")
	typeCmd.Flags().String("backend", "desktop", "injection backend: desktop, browser, capture")
	typeCmd.Flags().StringVar(&attachURL, "attach", "", "DevTools websocket URL of a running Chrome (browser backend)")
	typeCmd.Flags().StringVar(&pageURL, "url", "", "page to open before typing (browser backend)")
	return typeCmd
}

// readInputFile loads the text to type. Missing and empty files are hard
// errors: silently typing nothing would look like success.
func readInputFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read input file %q: %w", path, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("input file %q is empty", path)
	}
	return text, nil
}

// countdown gives the user time to focus the target window.
func countdown(ctx context.Context, cmd *cobra.Command, seconds int) error {
	if seconds <= 0 {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Focus the target window. Typing starts in %d seconds (ESC aborts)...\n", seconds)
	for i := seconds; i > 0; i-- {
		fmt.Fprintf(out, "%d...\n", i)
		t := time.NewTimer(time.Second)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return nil
}

// watchForEscape puts the terminal in raw mode and cancels the session when
// ESC (or Ctrl-C, which raw mode no longer turns into SIGINT) is pressed.
// Returns a restore function for the terminal state; a no-op when stdin is
// not a terminal.
func watchForEscape(cancel context.CancelFunc, logger *zap.Logger) func() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Debug("cannot enter raw mode, ESC abort disabled", zap.Error(err))
		return func() {}
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 && (buf[0] == escByte || buf[0] == 3) {
				logger.Info("abort requested from keyboard")
				cancel()
				return
			}
		}
	}()

	return func() { term.Restore(fd, oldState) }
}
