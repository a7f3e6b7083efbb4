// Package signals turns OS termination signals into context cancellation.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/endorses/wildscan/internal/pkg/constants"
	"github.com/endorses/wildscan/internal/pkg/logger"
)

// SetupHandler sets up a signal handler that cancels the provided context on SIGINT, SIGTERM, or SIGHUP
// Returns a cleanup function that should be called when the signal handler is no longer needed
func SetupHandler(ctx context.Context, cancel context.CancelFunc) (cleanup func()) {
	sigCh := make(chan os.Signal, constants.SignalChannelBuffer)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, stopping scan", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() {
		signal.Stop(sigCh)
		cancel()
		<-done
	}
}
