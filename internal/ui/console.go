package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"

	"q7z/internal/events"
)

// Surface is what startup code needs from the UI.
type Surface interface {
	// Show presents the Primary's surface. Callers invoke it once, after the
	// endpoint is serving.
	Show()
	// Notice prints a one-off status message.
	Notice(kind Kind, message string)
}

// Option configures a Console.
type Option func(*Console)

// WithTerminal forces terminal rendering on or off.
func WithTerminal(tty bool) Option {
	return func(c *Console) {
		c.tty = tty
		c.colorize = tty
	}
}

// WithTitle sets the text printed by Show.
func WithTitle(title string) Option {
	return func(c *Console) {
		c.title = title
	}
}

// Console renders events to a writer.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	tty      bool
	colorize bool
	title    string
	showOnce sync.Once

	pw       progress.Writer
	trackers map[string]*progress.Tracker
	labels   map[string]string
	last     map[string]string
}

// NewConsole returns a console writing to out. Terminal rendering is enabled
// when out is a terminal.
func NewConsole(out io.Writer, opts ...Option) *Console {
	c := &Console{
		out:      out,
		title:    "q7z is running",
		trackers: make(map[string]*progress.Tracker),
		labels:   make(map[string]string),
		last:     make(map[string]string),
	}
	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		c.tty = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		c.colorize = c.tty
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show prints the ready banner. Later calls do nothing.
func (c *Console) Show() {
	c.showOnce.Do(func() {
		c.Notice(KindInfo, c.title)
	})
}

// Notice prints message on its own line.
func (c *Console) Notice(kind Kind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, renderNotice(kind, message, c.colorize))
}

// Run renders events from in until ctx is cancelled or in is closed.
func (c *Console) Run(ctx context.Context, in <-chan events.Event) {
	if c.tty {
		c.startBars()
		defer c.stopBars()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-in:
			if !ok {
				return
			}
			c.apply(evt)
		}
	}
}

func (c *Console) startBars() {
	pw := progress.NewWriter()
	pw.SetOutputWriter(c.out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetMessageLength(32)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Value = false
	c.pw = pw
	go pw.Render()
	// Stop is a no-op until rendering has begun.
	for !pw.IsRenderInProgress() {
		time.Sleep(time.Millisecond)
	}
}

func (c *Console) stopBars() {
	c.pw.Stop()
	for c.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

func (c *Console) apply(evt events.Event) {
	switch evt.Name {
	case events.NameStarted:
		c.started(evt)
	case events.NamePercent:
		c.percent(evt)
	case events.NameFile:
		if tracker := c.trackers[evt.JobID]; tracker != nil {
			tracker.UpdateMessage(c.labels[evt.JobID] + ": " + filepath.Base(evt.Payload))
		}
	case events.NameLog:
		c.log(evt)
	case events.NameFinished:
		c.finished(evt)
	}
}

// log shows archiver status text. A tracker only keeps the latest line.
func (c *Console) log(evt events.Event) {
	if evt.Payload == "" {
		return
	}
	if tracker := c.trackers[evt.JobID]; tracker != nil {
		tracker.UpdateMessage(c.label(evt.JobID) + ": " + evt.Payload)
		return
	}
	if c.pw != nil {
		return
	}
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s: %s\n", c.label(evt.JobID), evt.Payload)
	c.mu.Unlock()
}

func (c *Console) started(evt events.Event) {
	label := filepath.Base(evt.Payload)
	if label == "." || label == "" {
		label = evt.JobID
	}
	c.labels[evt.JobID] = label
	if c.pw == nil {
		c.Notice(KindInfo, "extracting "+label)
		return
	}
	tracker := &progress.Tracker{Message: label, Total: 100, Units: progress.UnitsDefault}
	c.trackers[evt.JobID] = tracker
	c.pw.AppendTracker(tracker)
}

func (c *Console) percent(evt events.Event) {
	if tracker := c.trackers[evt.JobID]; tracker != nil {
		if n, err := strconv.ParseInt(evt.Payload, 10, 64); err == nil {
			tracker.SetValue(min(n, 100))
		}
		return
	}
	if c.pw != nil || c.last[evt.JobID] == evt.Payload {
		return
	}
	c.last[evt.JobID] = evt.Payload
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s %s%%\n", c.label(evt.JobID), evt.Payload)
	c.mu.Unlock()
}

func (c *Console) finished(evt events.Event) {
	label := c.label(evt.JobID)
	tracker := c.trackers[evt.JobID]
	delete(c.trackers, evt.JobID)
	delete(c.labels, evt.JobID)
	delete(c.last, evt.JobID)

	ok := evt.Payload == events.FinishedOK
	if tracker != nil {
		if ok {
			tracker.MarkAsDone()
		} else {
			tracker.UpdateMessage(label + ": " + evt.Payload)
			tracker.MarkAsErrored()
		}
		return
	}
	if ok {
		c.Notice(KindOK, label+" extracted")
		return
	}
	c.Notice(KindError, label+": "+evt.Payload)
}

func (c *Console) label(jobID string) string {
	if label, ok := c.labels[jobID]; ok {
		return label
	}
	return jobID
}
