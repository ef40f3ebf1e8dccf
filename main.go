// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/keyflow/cmd"
	"github.com/xkilldash9x/keyflow/internal/observability"
)

// main is the entry point for the keyflow CLI.
func main() {
	// Interrupts cancel the context so sessions can release held keys
	// before the process dies.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
