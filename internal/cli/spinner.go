package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner draws a progress indicator on stderr while a slow step runs.
// Nothing is drawn unless the writer is a terminal.
type Spinner struct {
	out     io.Writer
	tty     bool
	message string

	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

// startSpinner starts a spinner that runs until Stop is called or ctx ends.
func startSpinner(ctx context.Context, message string) *Spinner {
	s := newSpinner(os.Stderr, isTerminal(os.Stderr), message)
	go s.run(ctx)
	return s
}

func newSpinner(out io.Writer, tty bool, message string) *Spinner {
	return &Spinner{
		out:     out,
		tty:     tty,
		message: message,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *Spinner) run(ctx context.Context) {
	defer close(s.stopped)
	defer s.clear()
	if !s.tty {
		select {
		case <-ctx.Done():
		case <-s.stop:
		}
		return
	}
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message))
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the spinner and clears its line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.stopped
}

func (s *Spinner) clear() {
	if s.tty {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	}
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
