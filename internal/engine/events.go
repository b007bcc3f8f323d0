package engine

import (
	"time"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/decay"
)

// EventType is carried in every event's "type" field on the wire.
type EventType string

const (
	EventStarted        EventType = "started"
	EventTick           EventType = "tick"
	EventFinalize       EventType = "finalize"
	EventArchiveUpdated EventType = "archive_updated"
	EventArchiveCleared EventType = "archive_cleared"
	EventSettled        EventType = "settled"
)

// Event is anything the engine publishes to observers and subscribers.
type Event interface {
	EventType() EventType
}

type StartedEvent struct {
	Type        EventType         `json:"type"`
	SessionID   string            `json:"session_id"`
	Algorithm   string            `json:"algorithm"`
	Descriptor  decay.Descriptor  `json:"descriptor"`
	ContentType decay.ContentType `json:"content_type"`
	Integrity   int               `json:"integrity"`
	Length      int               `json:"length"`
}

// TickEvent carries the current text so line renderers need no snapshot.
type TickEvent struct {
	Type        EventType         `json:"type"`
	SessionID   string            `json:"session_id"`
	Algorithm   string            `json:"algorithm"`
	ContentType decay.ContentType `json:"content_type"`
	Integrity   int               `json:"integrity"`
	Cues        decay.Cues        `json:"cues"`
	Text        string            `json:"text,omitempty"`
}

// FinalizeEvent is published once per session. Entry is nil when the archive
// append failed.
type FinalizeEvent struct {
	Type        EventType         `json:"type"`
	SessionID   string            `json:"session_id"`
	Algorithm   string            `json:"algorithm"`
	Timestamp   time.Time         `json:"timestamp"`
	ContentType decay.ContentType `json:"content_type"`
	Entry       *archive.Entry    `json:"entry,omitempty"`
	Message     string            `json:"message,omitempty"`
}

type ArchiveUpdatedEvent struct {
	Type  EventType     `json:"type"`
	Entry archive.Entry `json:"entry"`
}

type ArchiveClearedEvent struct {
	Type EventType `json:"type"`
}

// SettledEvent follows a finalize after the settle delay; renderers re-enable
// their controls on it.
type SettledEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

func (StartedEvent) EventType() EventType        { return EventStarted }
func (TickEvent) EventType() EventType           { return EventTick }
func (FinalizeEvent) EventType() EventType       { return EventFinalize }
func (ArchiveUpdatedEvent) EventType() EventType { return EventArchiveUpdated }
func (ArchiveClearedEvent) EventType() EventType { return EventArchiveCleared }
func (SettledEvent) EventType() EventType        { return EventSettled }

// Observer receives every event synchronously, in publish order. It must not
// block and must not call back into the Engine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

// AddObserver registers o for all future events.
func (e *Engine) AddObserver(o Observer) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.observers = append(e.observers, o)
}

// Subscribe returns a channel receiving future events. When the buffer is
// full events are dropped rather than stalling the tick. cancel closes the
// channel.
func (e *Engine) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 64
	}
	ch := make(chan Event, buf)

	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subsMu.Unlock()

	var once bool
	cancel := func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		if once {
			return
		}
		once = true
		delete(e.subs, id)
		close(ch)
	}
	return ch, cancel
}

// emit publishes events that follow no state change under mu.
func (e *Engine) emit(events ...Event) {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	e.publish(events...)
}

// publish must be called with pubMu held.
func (e *Engine) publish(events ...Event) {
	e.subsMu.Lock()
	observers := append([]Observer(nil), e.observers...)
	e.subsMu.Unlock()

	for _, ev := range events {
		for _, o := range observers {
			o.Observe(ev)
		}

		e.subsMu.Lock()
		for _, ch := range e.subs {
			select {
			case ch <- ev:
			default:
				e.metrics.EventDropped()
			}
		}
		e.subsMu.Unlock()
	}
}
