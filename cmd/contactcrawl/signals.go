package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// signalContext is cancelled on Ctrl+C (and SIGTERM where supported).
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 1)
	registerSignals(sig)
	go func() {
		select {
		case <-sig:
			fmt.Fprintf(os.Stderr, "\n\n%s Interrupt received, stopping...\n", clr("yellow", "!"))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}
