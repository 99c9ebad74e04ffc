package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
)

// ErrInterrupted is returned by an InterruptibleReader after cancellation.
var ErrInterrupted = errors.New("interrupted")

// SignalContext is cancelled on SIGINT or SIGTERM and remembers which signal
// arrived. Cancel releases the signal handler.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalContext derives a SignalContext from parent.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case s := <-ch:
			sc.mu.Lock()
			sc.sig = s
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}

// CreateLogger builds the stderr logger for a level name. Stdout stays
// reserved for command output.
func CreateLogger(level string) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// PrintSystemMessage prints a line the engine did not produce, such as a
// shutdown notice.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// InterruptibleReader stops handing out transcript bytes once cancel is
// closed. A Read already blocked on the base reader returns its data first.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{base: base, cancel: cancel}
}

func (r *InterruptibleReader) Read(p []byte) (int, error) {
	if r.cancelled() {
		return 0, ErrInterrupted
	}
	n, err := r.base.Read(p)
	if r.cancelled() {
		return 0, ErrInterrupted
	}
	return n, err
}

func (r *InterruptibleReader) cancelled() bool {
	select {
	case <-r.cancel:
		return true
	default:
		return false
	}
}

// HandleExecutionError maps interruptions and end of input to a clean exit.
func HandleExecutionError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrInterrupted),
		errors.Is(err, context.Canceled),
		errors.Is(err, io.EOF):
		return nil
	}
	return err
}
