// Package tui renders a live decay session in the terminal.
package tui

import (
	"fmt"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/engine"
)

const (
	barWidth     = 30
	previewWidth = 48
)

// Source supplies image frames, which tick events do not carry.
type Source interface {
	Snapshot() engine.Snapshot
}

type eventMsg struct{ ev engine.Event }

type closedMsg struct{}

// Model follows one session from start until it settles, then quits.
type Model struct {
	events <-chan engine.Event
	source Source

	descriptor  decay.Descriptor
	contentType decay.ContentType
	integrity   int
	text        string
	preview     string
	cues        decay.Cues
	message     string
	trace       string
	finished    bool
	interrupted bool
}

// New renders snap and then follows events.
func New(events <-chan engine.Event, source Source, snap engine.Snapshot) Model {
	m := Model{
		events:      events,
		source:      source,
		contentType: snap.ContentType,
		integrity:   snap.Integrity,
		text:        snap.Text,
		cues:        snap.Cues,
	}
	if snap.Descriptor != nil {
		m.descriptor = *snap.Descriptor
	}
	if snap.Image != nil {
		m.preview = renderImage(snap.Image, previewWidth)
	}
	return m
}

// Interrupted reports whether the user quit before the session settled.
func (m Model) Interrupted() bool { return m.interrupted }

func waitForEvent(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg{ev}
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.interrupted = !m.finished
			return m, tea.Quit
		}
		return m, nil
	case closedMsg:
		return m, tea.Quit
	case eventMsg:
		switch ev := msg.ev.(type) {
		case engine.StartedEvent:
			m.descriptor = ev.Descriptor
			m.contentType = ev.ContentType
			m.integrity = ev.Integrity
		case engine.TickEvent:
			m.integrity = ev.Integrity
			m.cues = ev.Cues
			m.text = ev.Text
			if ev.ContentType == decay.Image && m.source != nil {
				if img := m.source.Snapshot().Image; img != nil {
					m.preview = renderImage(img, previewWidth)
				}
			}
		case engine.FinalizeEvent:
			m.finished = true
			m.message = ev.Message
			if ev.Entry != nil {
				m.trace = ev.Entry.Trace
			}
		case engine.SettledEvent:
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	accent := parseHex(m.descriptor.Color)
	title := Title.Foreground(hex(accent)).Render(m.descriptor.Name)
	b.WriteString(title)
	b.WriteString(Muted.Render("  " + m.descriptor.Description))
	b.WriteString("\n\n")

	b.WriteString(m.body(accent))
	b.WriteString("\n\n")
	b.WriteString(integrityBar(m.integrity))

	if m.cues.Sound != "" {
		b.WriteString(Muted.Render("  ♪ " + m.cues.Sound))
	}
	if m.finished {
		b.WriteString("\n\n")
		msg := m.message
		if msg == "" {
			msg = "Released"
		}
		b.WriteString(Hot.Render(msg))
		if m.trace != "" {
			b.WriteString(Muted.Render("  trace " + m.trace))
		}
	} else {
		b.WriteString("\n\n" + Muted.Render("q to stop watching"))
	}

	return Frame.Render(b.String()) + "\n"
}

func (m Model) body(accent decay.RGB) string {
	switch m.contentType {
	case decay.Image:
		if m.preview == "" {
			return Muted.Render("(empty image)")
		}
		return m.preview
	case decay.Audio:
		return Muted.Render("(audio fades, unheard)")
	}

	base := decay.RGB{R: 0x3a, G: 0x32, B: 0x26}
	if m.cues.Color != nil {
		base = *m.cues.Color
	}
	style := lipgloss.NewStyle().Foreground(inkAt(base, m.cues.Opacity)).Width(previewWidth)
	if m.cues.Glitch {
		style = style.Foreground(hex(accent)).Strikethrough(true)
	}
	return style.Render(m.text)
}

func integrityBar(integrity int) string {
	filled := integrity * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %3d%% %s", bar, integrity, Muted.Render("integrity"))
}

// renderImage draws img with half blocks, two pixel rows per line, scaled
// down to at most width columns.
func renderImage(img *image.NRGBA, width int) string {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}
	step := max(1, (b.Dx()+width-1)/width)

	var out strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 * step {
		for x := b.Min.X; x < b.Max.X; x += step {
			top := img.NRGBAAt(x, y)
			bottom := top
			if y+step < b.Max.Y {
				bottom = img.NRGBAAt(x, y+step)
			}
			out.WriteString(lipgloss.NewStyle().
				Foreground(cellColor(top.R, top.G, top.B, top.A)).
				Background(cellColor(bottom.R, bottom.G, bottom.B, bottom.A)).
				Render("▀"))
		}
		out.WriteString("\n")
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func cellColor(r, g, b, a uint8) lipgloss.Color {
	return inkAt(decay.RGB{R: r, G: g, B: b}, float64(a)/255)
}
