package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// SpinnerProgressReporter renders run progress on a terminal: a header per
// task, a spinner while a deployment is submitted and confirmed, and one
// line per recorded or reused deployment
type SpinnerProgressReporter struct {
	out       io.Writer
	spinner   *spinner.Spinner
	mu        sync.Mutex
	taskStart time.Time
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter writing to stderr
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return newSpinnerProgressReporter(os.Stderr, true)
}

func newSpinnerProgressReporter(out io.Writer, animate bool) *SpinnerProgressReporter {
	r := &SpinnerProgressReporter{out: out}
	if animate {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		s.HideCursor = false
		r.spinner = s
	}
	return r
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Stage {
	case usecase.StageTask:
		r.stop()
		r.taskStart = time.Now()
		counter := color.New(color.Faint).Sprintf("[%d/%d]", event.Current, event.Total)
		fmt.Fprintf(r.out, "%s %s\n", counter, color.New(color.Bold).Sprint(event.Message))

	case usecase.StageSubmitting, usecase.StageConfirming:
		if r.spinner == nil {
			// without animation only the submission is worth a line
			if event.Stage == usecase.StageSubmitting {
				fmt.Fprintf(r.out, "  %s\n", event.Message)
			}
			return
		}
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}

	case usecase.StageRecorded:
		r.stop()
		fmt.Fprintf(r.out, "  %s %s%s\n", color.GreenString("✓"), event.Message, r.elapsed())

	case usecase.StageSkipped:
		r.stop()
		fmt.Fprintf(r.out, "  %s\n", color.New(color.Faint).Sprintf("⊘ %s", event.Message))

	default:
		if event.Spinner && r.spinner != nil {
			r.spinner.Suffix = " " + event.Message
			r.spinner.Start()
			return
		}
		r.stop()
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.print(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.print(color.New(color.FgRed), message)
}

func (r *SpinnerProgressReporter) print(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Stop spinner temporarily
	wasActive := r.spinner != nil && r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	c.Fprintln(r.out, "  "+message)

	if wasActive {
		r.spinner.Start()
	}
}

func (r *SpinnerProgressReporter) stop() {
	if r.spinner != nil && r.spinner.Active() {
		r.spinner.Stop()
	}
}

func (r *SpinnerProgressReporter) elapsed() string {
	if r.taskStart.IsZero() {
		return ""
	}
	return color.New(color.Faint).Sprintf(" (%s)", time.Since(r.taskStart).Round(time.Millisecond))
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
