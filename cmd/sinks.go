// -- cmd/sinks.go --
package cmd

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keyflow/internal/config"
	"github.com/xkilldash9x/keyflow/pkg/humantype"
	"github.com/xkilldash9x/keyflow/pkg/inject"
)

// buildEngineOptions translates the loaded configuration into engine options.
func buildEngineOptions(cfg *config.Config) humantype.Options {
	return humantype.Options{
		Profile: humantype.ProfileByName(cfg.Typing.Profile),
		Layout:  humantype.LayoutByName(cfg.Typing.Layout),
		Delays: humantype.DelayRange{
			MinMs: cfg.Typing.MinDelayMs,
			MaxMs: cfg.Typing.MaxDelayMs,
		}.Normalized(),
		Imperfections: humantype.ImperfectionSettings{
			EnableTypos:           cfg.Imperfections.EnableTypos,
			TypoMin:               cfg.Imperfections.TypoMin,
			TypoMax:               cfg.Imperfections.TypoMax,
			EnableDoubleKeys:      cfg.Imperfections.EnableDoubleKeys,
			DoubleMin:             cfg.Imperfections.DoubleMin,
			DoubleMax:             cfg.Imperfections.DoubleMax,
			EnableAutoCorrection:  cfg.Imperfections.EnableAutoCorrection,
			CorrectionProbability: cfg.Imperfections.CorrectionProbability,
		},
		Seed:        cfg.Typing.Seed,
		MouseJitter: cfg.Typing.MouseJitter,
	}
}

// buildSinks resolves the configured backend into live sinks. The browser
// backend either attaches to a running Chrome instance (attachURL points at
// its DevTools websocket) or launches one and navigates it to pageURL.
func buildSinks(ctx context.Context, cfg *config.Config, attachURL, pageURL string, logger *zap.Logger) (*inject.Sinks, error) {
	if cfg.Injection.Backend != inject.BackendBrowser {
		return inject.New(cfg.Injection.Backend, nil, logger)
	}

	browserCtx, cleanup, err := newBrowserContext(ctx, attachURL, pageURL)
	if err != nil {
		return nil, err
	}
	sinks, err := inject.New(inject.BackendBrowser, browserCtx, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	sinks.Close = cleanup
	return sinks, nil
}

func newBrowserContext(parent context.Context, attachURL, pageURL string) (context.Context, func(), error) {
	var (
		browserCtx context.Context
		cancels    []context.CancelFunc
	)

	if attachURL != "" {
		allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(parent, attachURL)
		ctx, cancelCtx := chromedp.NewContext(allocCtx)
		browserCtx = ctx
		cancels = append(cancels, cancelCtx, cancelAlloc)
	} else {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, chromedp.DefaultExecAllocatorOptions[:]...)
		ctx, cancelCtx := chromedp.NewContext(allocCtx)
		browserCtx = ctx
		cancels = append(cancels, cancelCtx, cancelAlloc)
	}

	cleanup := func() {
		for _, cancel := range cancels {
			cancel()
		}
	}

	if pageURL == "" {
		pageURL = "about:blank"
	}
	if err := chromedp.Run(browserCtx, chromedp.Navigate(pageURL)); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open browser target %q: %w", pageURL, err)
	}
	return browserCtx, cleanup, nil
}
