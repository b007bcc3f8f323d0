package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/engine"
)

// Lines is an engine.Observer writing one plain line per step, for pipes and
// dumb terminals. Text is printed on every tick; other content every tenth.
type Lines struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLines(w io.Writer) *Lines {
	return &Lines{w: w}
}

func (l *Lines) Observe(ev engine.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev := ev.(type) {
	case engine.StartedEvent:
		fmt.Fprintf(l.w, "forgetting %s by %s\n", Label(string(ev.ContentType)), ev.Descriptor.Name)
	case engine.TickEvent:
		if ev.ContentType == decay.Text {
			fmt.Fprintf(l.w, "%3d%%  %s\n", ev.Integrity, ev.Text)
		} else if ev.Integrity%20 == 0 {
			fmt.Fprintf(l.w, "%3d%%\n", ev.Integrity)
		}
	case engine.FinalizeEvent:
		msg := ev.Message
		if msg == "" {
			msg = "released"
		}
		if ev.Entry != nil {
			fmt.Fprintf(l.w, "%s. archived #%d trace %q\n", msg, ev.Entry.ID, ev.Entry.Trace)
		} else {
			fmt.Fprintf(l.w, "%s. nothing archived\n", msg)
		}
	}
}
