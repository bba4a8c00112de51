// Package signal cancels a command's context on SIGINT or SIGTERM.
//
// The first signal cancels the context so generation batches, migrations
// and watchers can stop at their next checkpoint. A second signal calls the
// force callback, which normally exits the process.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler owns a context that is canceled on the first shutdown signal.
type Handler struct {
	ctx     context.Context //nolint:containedctx // handler manages context lifecycle
	cancel  context.CancelFunc
	onForce func(os.Signal)

	mu       sync.Mutex
	received os.Signal
	count    int

	interrupted chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	sigChan     chan os.Signal
}

// NewHandler starts listening for SIGINT and SIGTERM. onForce may be nil;
// it is called from the listening goroutine on the second signal.
func NewHandler(parent context.Context, onForce func(os.Signal)) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		onForce:     onForce,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		sigChan:     make(chan os.Signal, 1),
	}
	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()
	return h
}

// Context returns the context canceled by the first signal or by Stop.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted is closed when the first signal arrives.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Signal returns the first signal received, or nil.
func (h *Handler) Signal() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// ExitCode returns the conventional shell exit code for the received
// signal (128 + signal number), or 0 when none arrived.
func (h *Handler) ExitCode() int {
	sig, ok := h.Signal().(syscall.Signal)
	if !ok {
		return 0
	}
	return 128 + int(sig)
}

// Stop stops listening and cancels the context.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

func (h *Handler) handleSignal(sig os.Signal) {
	h.mu.Lock()
	h.count++
	count := h.count
	if count == 1 {
		h.received = sig
	}
	h.mu.Unlock()

	switch {
	case count == 1:
		h.cancel()
		close(h.interrupted)
	case count == 2 && h.onForce != nil:
		h.onForce(sig)
	}
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case sig := <-h.sigChan:
			h.handleSignal(sig)
		}
	}
}
