package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var statusFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// status draws a spinner followed by the running pipeline stage. Its Set
// method is a pipeline progress callback. It stops when ctx is cancelled.
type status struct {
	w        io.Writer
	interval time.Duration
	parent   context.Context
	cancel   context.CancelFunc
	stopped  chan struct{}
	once     sync.Once

	mu    sync.Mutex
	stage string
	width int // widest line drawn, cleared on stop
}

// statusInterval is the spinner frame rate.
const statusInterval = 80 * time.Millisecond

// startStatus shows stage on stderr. At debug level frames are not drawn so
// they do not interleave with log lines; the stage is still tracked.
func (c *CLI) startStatus(ctx context.Context, stage string) *status {
	w := io.Writer(os.Stderr)
	if c.Logger.GetLevel() <= log.DebugLevel {
		w = io.Discard
	}
	return startStatus(ctx, w, stage, statusInterval)
}

// startStatus starts drawing stage to w every interval.
func startStatus(ctx context.Context, w io.Writer, stage string, interval time.Duration) *status {
	runCtx, cancel := context.WithCancel(ctx)
	s := &status{w: w, interval: interval, parent: ctx, cancel: cancel, stopped: make(chan struct{}), stage: stage}
	go s.run(runCtx)
	return s
}

func (s *status) run(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.draw(statusFrames[i%len(statusFrames)])
		}
	}
}

func (s *status) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := frame + " " + s.stage
	s.width = max(s.width, len([]rune(line)))
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.stage))
}

// Set replaces the stage shown from the next frame on. It is safe for
// concurrent use.
func (s *status) Set(stage string) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

// Stage returns the stage currently shown.
func (s *status) Stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Stop stops drawing and clears the line. Calling it again does nothing.
func (s *status) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.width > 0 {
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		}
	})
}

// Interrupted reports whether the command context was cancelled while the
// status was shown.
func (s *status) Interrupted() bool {
	return s.parent.Err() != nil
}
