package engine

import (
	"image"
	"time"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/decay"
)

// Status is the lifecycle state of the engine's single session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusDecaying Status = "decaying"
	StatusFinished Status = "finished"
)

const (
	// StartIntegrity is where every session begins.
	StartIntegrity = 100
	// IntegrityStep is subtracted on each tick; sessions always last 50 ticks.
	IntegrityStep = 2
)

type session struct {
	id         string
	algorithm  string
	descriptor decay.Descriptor
	frame      *decay.Frame
	integrity  int
	status     Status
	ticks      int
	cues       decay.Cues
	startedAt  time.Time
	finishedAt time.Time
	settled    bool
	// archiving is set while the trace is appended. The session still counts
	// as decaying so no new one can start underneath it.
	archiving bool

	// Captured at start so the archive never sees decayed content.
	length int
	trace  string

	entry *archive.Entry
}

// Snapshot is a read-only copy of the session for renderers.
type Snapshot struct {
	SessionID   string            `json:"session_id,omitempty"`
	Status      Status            `json:"status"`
	Algorithm   string            `json:"algorithm,omitempty"`
	Descriptor  *decay.Descriptor `json:"descriptor,omitempty"`
	ContentType decay.ContentType `json:"content_type,omitempty"`
	Integrity   int               `json:"integrity"`
	Ticks       int               `json:"ticks"`
	Text        string            `json:"text,omitempty"`
	Image       *image.NRGBA      `json:"-"`
	Cues        decay.Cues        `json:"cues"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	Settled     bool              `json:"settled"`
	Message     string            `json:"message,omitempty"`
	Entry       *archive.Entry    `json:"entry,omitempty"`
}

func (s *session) snapshot() Snapshot {
	if s == nil {
		return Snapshot{Status: StatusIdle, Settled: true}
	}
	desc := s.descriptor
	started := s.startedAt
	snap := Snapshot{
		SessionID:   s.id,
		Status:      s.status,
		Algorithm:   s.algorithm,
		Descriptor:  &desc,
		ContentType: s.frame.Type,
		Integrity:   s.integrity,
		Ticks:       s.ticks,
		Text:        s.frame.String(),
		Image:       s.frame.CloneImage(),
		Cues:        s.cues,
		StartedAt:   &started,
		Settled:     s.settled,
	}
	if s.status == StatusFinished {
		finished := s.finishedAt
		snap.FinishedAt = &finished
		snap.Message = decay.FinalMessage(s.algorithm)
		if s.entry != nil {
			e := *s.entry
			snap.Entry = &e
		}
	}
	return snap
}
