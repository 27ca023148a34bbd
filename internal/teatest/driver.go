// Package teatest drives bubbletea models in tests without a tea.Program.
//
// Messages go through Update directly and the returned Cmds run with a
// short deadline. A Cmd that misses the deadline is parked rather than
// dropped: WaitFor keeps delivering parked results until the view satisfies
// a condition, which is how streamed output is observed. Cursor blink
// messages are discarded when they arrive.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDepth bounds how many Cmd generations one Send may run.
const MaxDepth = 100

const (
	defaultCmdTimeout = 10 * time.Millisecond
	pollInterval      = 2 * time.Millisecond
)

// Driver feeds messages to a model and runs the Cmds it returns.
type Driver struct {
	t          testing.TB
	model      tea.Model
	cmdTimeout time.Duration
	parked     []<-chan tea.Msg
	quit       bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithSize delivers a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.model, _ = d.model.Update(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// WithCmdTimeout sets how long a Cmd may run before it is parked.
func WithCmdTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.cmdTimeout = timeout }
}

// New returns a Driver for model. Call Init to run the model's Init Cmd.
func New(t testing.TB, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{t: t, model: model, cmdTimeout: defaultCmdTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Model returns the current model.
func (d *Driver) Model() tea.Model { return d.model }

// View renders the current model.
func (d *Driver) View() string { return d.model.View() }

// Quitting reports whether a Cmd produced tea.QuitMsg.
func (d *Driver) Quitting() bool { return d.quit }

// Init runs the model's Init Cmd.
func (d *Driver) Init() {
	d.t.Helper()
	d.run(d.model.Init(), 0)
}

// Send delivers msg and runs the resulting Cmds. It is a no-op once the
// model has quit.
func (d *Driver) Send(msg tea.Msg) {
	d.t.Helper()
	d.deliver(msg, 0)
}

// Key sends a special key such as tea.KeyEnter.
func (d *Driver) Key(k tea.KeyType) {
	d.t.Helper()
	d.Send(tea.KeyMsg{Type: k})
}

// Type sends s one rune at a time.
func (d *Driver) Type(s string) {
	d.t.Helper()
	for _, r := range s {
		d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// Submit types s and presses Enter.
func (d *Driver) Submit(s string) {
	d.t.Helper()
	d.Type(s)
	d.Key(tea.KeyEnter)
}

// WaitFor delivers parked Cmd results until cond holds for the view, failing
// the test if it does not within timeout.
func (d *Driver) WaitFor(cond func(view string) bool, timeout time.Duration) {
	d.t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond(d.View()) {
		if time.Now().After(deadline) {
			d.t.Fatalf("teatest: condition not met within %s; view:\n%s", timeout, d.View())
			return
		}
		if !d.deliverParked() {
			time.Sleep(pollInterval)
		}
	}
}

// WaitForText waits until the view contains text.
func (d *Driver) WaitForText(text string, timeout time.Duration) {
	d.t.Helper()
	d.WaitFor(func(view string) bool { return strings.Contains(view, text) }, timeout)
}

// deliverParked delivers every parked result that is ready and reports
// whether any was.
func (d *Driver) deliverParked() bool {
	parked := d.parked
	d.parked = nil
	var pending []<-chan tea.Msg
	delivered := false
	for _, ch := range parked {
		select {
		case msg := <-ch:
			delivered = true
			d.deliver(msg, 0)
		default:
			pending = append(pending, ch)
		}
	}
	// deliver may have parked new Cmds meanwhile
	d.parked = append(pending, d.parked...)
	return delivered
}

func (d *Driver) run(cmd tea.Cmd, depth int) {
	if cmd == nil || d.quit {
		return
	}
	if depth >= MaxDepth {
		d.t.Logf("teatest: stopped after %d Cmd generations", MaxDepth)
		return
	}

	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		d.deliver(msg, depth)
	case <-time.After(d.cmdTimeout):
		d.parked = append(d.parked, ch)
	}
}

func (d *Driver) deliver(msg tea.Msg, depth int) {
	if msg == nil || d.quit || isBlink(msg) {
		return
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, cmd := range msg {
			d.run(cmd, depth+1)
		}
		return
	case tea.QuitMsg:
		d.quit = true
	}
	var next tea.Cmd
	d.model, next = d.model.Update(msg)
	d.run(next, depth+1)
}

// isBlink matches the cursor package's unexported blink messages.
func isBlink(msg tea.Msg) bool {
	name := fmt.Sprintf("%T", msg)
	return strings.Contains(name, "Blink") || strings.Contains(name, "blink")
}
