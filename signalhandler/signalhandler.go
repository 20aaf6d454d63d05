package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"imagecompare/logging"
)

// SetupHandler returns a context cancelled on the first SIGINT/SIGTERM.
// A second signal exits immediately.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel, _ := setupHandler(parent)
	return ctx, cancel
}

// setupHandler also returns a channel closed once the watcher goroutine exits
func setupHandler(parent context.Context) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)

	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	finished := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(finished)
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %v, stopping...", sig)
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			return
		}

		select {
		case <-sigChan:
			os.Exit(130)
		case <-parent.Done():
		case <-done:
		}
	}()

	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
			cancel()
		})
	}, finished
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	// Get the number of CPUs available
	numCPU := runtime.NumCPU()

	// Leave headroom for decoding buffers and the progress display
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
