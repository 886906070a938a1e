// Package interrupt implements the one-shot cancellation latch fed by an OS
// interrupt. The latch is observed cooperatively by the download loop.
package interrupt

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// installed guards the process-wide signal hook. Only one live Latch may
// exist at a time because signal.Notify registration is a global resource.
var installed atomic.Bool

// Latch is a single-writer, multi-reader one-shot cancellation signal. It
// starts untripped, transitions exactly once, and never resets.
type Latch struct {
	done chan struct{}
	once sync.Once
	sigs chan os.Signal
}

// Install creates a latch bound to SIGINT and SIGTERM. It panics if another
// latch is still live; Close releases the hook and allows a successor.
func Install(logger *slog.Logger) *Latch {
	if !installed.CompareAndSwap(false, true) {
		panic("interrupt: latch already installed, close the previous one first")
	}

	l := &Latch{
		done: make(chan struct{}),
		sigs: make(chan os.Signal, 1),
	}

	signal.Notify(l.sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-l.sigs
		if !ok {
			return
		}

		logger.Error("interrupt received, stopping after the current step", "signal", sig.String())
		l.Trigger()
	}()

	return l
}

// Trigger trips the latch. Idempotent; only the first call has effect.
// Safe to call from any goroutine.
func (l *Latch) Trigger() {
	l.once.Do(func() { close(l.done) })
}

// Done returns a channel that is closed once the latch has been triggered and
// stays closed forever after.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Triggered reports whether the latch has fired, without blocking.
func (l *Latch) Triggered() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Close uninstalls the OS hook. A fired latch stays fired; Close only
// releases the global registration so a new latch may be installed.
func (l *Latch) Close() {
	signal.Stop(l.sigs)
	close(l.sigs)
	installed.Store(false)
}
