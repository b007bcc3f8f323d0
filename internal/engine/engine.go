package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/observability"
)

const (
	DefaultTickInterval   = 100 * time.Millisecond
	DefaultSettleDelay    = 1500 * time.Millisecond
	DefaultArchiveTimeout = 5 * time.Second
)

// Options configures an Engine. Archive is required; everything else has a
// usable default. A zero SettleDelay means DefaultSettleDelay and a negative
// one settles sessions as soon as they finish. ArchiveTimeout bounds each
// archive append.
type Options struct {
	Registry       *decay.Registry
	Tables         *decay.Tables
	Rand           decay.Rand
	Archive        archive.Store
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	TickInterval   time.Duration
	SettleDelay    time.Duration
	ArchiveTimeout time.Duration
	Now            func() time.Time
}

// Engine drives one decay session at a time and archives its trace when the
// session finishes.
type Engine struct {
	registry     *decay.Registry
	tables       *decay.Tables
	rng          decay.Rand
	archive      archive.Store
	logger       *zap.Logger
	metrics      *observability.Metrics
	tickInterval   time.Duration
	settleDelay    time.Duration
	archiveTimeout time.Duration
	now            func() time.Time

	mu      sync.Mutex
	session *session

	// pubMu is taken before mu is released so events leave in the order the
	// state changed. Lock order is mu, then pubMu; finalize retakes mu under
	// pubMu only while the session is archiving, when every other path that
	// wants pubMu is turned away first.
	pubMu sync.Mutex

	subsMu    sync.Mutex
	observers []Observer
	subs      map[int]chan Event
	nextSub   int
}

// New creates a new Engine.
func New(opts Options) (*Engine, error) {
	if opts.Archive == nil {
		return nil, fmt.Errorf("engine: archive store is required")
	}
	e := &Engine{
		registry:     opts.Registry,
		tables:       opts.Tables,
		rng:          opts.Rand,
		archive:      opts.Archive,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		tickInterval:   opts.TickInterval,
		settleDelay:    opts.SettleDelay,
		archiveTimeout: opts.ArchiveTimeout,
		now:            opts.Now,
		subs:           make(map[int]chan Event),
	}
	if e.registry == nil {
		e.registry = decay.NewRegistry()
	}
	if e.tables == nil {
		e.tables = decay.DefaultTables()
	}
	if e.rng == nil {
		e.rng = decay.NewRand(0)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.tickInterval <= 0 {
		e.tickInterval = DefaultTickInterval
	}
	if e.settleDelay < 0 {
		e.settleDelay = 0
	} else if e.settleDelay == 0 {
		e.settleDelay = DefaultSettleDelay
	}
	if e.archiveTimeout <= 0 {
		e.archiveTimeout = DefaultArchiveTimeout
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

func (e *Engine) Registry() *decay.Registry { return e.registry }
func (e *Engine) Archive() archive.Store    { return e.archive }

// Start begins decaying c. It is a silent no-op returning false while another
// session is decaying, or when c has no known content type. An empty
// algorithm picks one of the canonical six at random; unknown identifiers are
// kept and leave the content untouched.
func (e *Engine) Start(ctx context.Context, c decay.Content, algorithm string) (Snapshot, bool) {
	e.mu.Lock()
	if ctx.Err() != nil || !c.Type.Valid() || (e.session != nil && e.session.status == StatusDecaying) {
		snap := e.session.snapshot()
		e.mu.Unlock()
		e.metrics.StartRejected()
		return snap, false
	}

	if strings.TrimSpace(algorithm) == "" {
		algorithm = e.registry.Pick(e.rng)
	} else {
		algorithm = e.registry.Canonical(algorithm)
	}
	desc := e.registry.Lookup(algorithm)

	s := &session{
		id:         uuid.NewString(),
		algorithm:  algorithm,
		descriptor: desc,
		frame:      decay.NewFrame(c),
		integrity:  StartIntegrity,
		status:     StatusDecaying,
		cues:       decay.Cues{Opacity: 1},
		startedAt:  e.now(),
		length:     decay.LengthOf(c),
		trace:      decay.TraceOf(c),
	}
	e.session = s
	snap := s.snapshot()
	e.pubMu.Lock()
	e.mu.Unlock()
	defer e.pubMu.Unlock()

	e.metrics.SessionStarted(algorithm, string(c.Type))
	e.logger.Info("decay started",
		zap.String("session", s.id),
		zap.String("algorithm", algorithm),
		zap.String("content_type", string(c.Type)),
		zap.Bool("known_algorithm", e.registry.Known(algorithm)),
	)
	e.publish(StartedEvent{
		Type:        EventStarted,
		SessionID:   s.id,
		Algorithm:   algorithm,
		Descriptor:  desc,
		ContentType: c.Type,
		Integrity:   StartIntegrity,
		Length:      s.length,
	})
	return snap, true
}

// TickResult reports what a single Tick did.
type TickResult struct {
	SessionID string
	Advanced  bool
	Integrity int
	Finished  bool
}

// Tick advances the decaying session by one step. It does nothing when idle,
// finished, or while the last step is still being archived.
func (e *Engine) Tick(ctx context.Context) TickResult {
	e.mu.Lock()
	s := e.session
	if s == nil || s.status != StatusDecaying || s.archiving {
		e.mu.Unlock()
		return TickResult{}
	}

	s.integrity = max(s.integrity-IntegrityStep, 0)
	s.ticks++
	s.cues = decay.Apply(s.algorithm, s.frame, s.integrity, e.rng, e.tables)

	events := []Event{TickEvent{
		Type:        EventTick,
		SessionID:   s.id,
		Algorithm:   s.algorithm,
		ContentType: s.frame.Type,
		Integrity:   s.integrity,
		Cues:        s.cues,
		Text:        s.frame.String(),
	}}
	res := TickResult{SessionID: s.id, Advanced: true, Integrity: s.integrity}

	var pending *archive.Entry
	if s.integrity <= 0 {
		s.archiving = true
		s.finishedAt = e.now()
		pending = &archive.Entry{
			Algorithm: s.algorithm,
			Timestamp: s.finishedAt,
			Length:    s.length,
			Trace:     s.trace,
			Mode:      string(s.frame.Type),
		}
		res.Finished = true
	}
	e.pubMu.Lock()
	e.mu.Unlock()
	defer e.pubMu.Unlock()

	if pending != nil {
		events = append(events, e.finalize(ctx, s, *pending)...)
	}
	e.metrics.Tick()
	e.publish(events...)
	return res
}

// finalize appends the trace without holding mu, so a slow archive never
// blocks Snapshot or Start, then marks the session finished.
func (e *Engine) finalize(ctx context.Context, s *session, pending archive.Entry) []Event {
	actx, cancel := context.WithTimeout(ctx, e.archiveTimeout)
	entry, err := e.archive.Append(actx, pending)
	cancel()

	e.mu.Lock()
	s.archiving = false
	s.status = StatusFinished
	if e.settleDelay == 0 {
		s.settled = true
	}
	if err == nil {
		s.entry = &entry
	}
	e.mu.Unlock()

	e.metrics.SessionFinalized(s.algorithm, s.finishedAt.Sub(s.startedAt))
	fin := FinalizeEvent{
		Type:        EventFinalize,
		SessionID:   s.id,
		Algorithm:   s.algorithm,
		Timestamp:   s.finishedAt,
		ContentType: s.frame.Type,
		Message:     decay.FinalMessage(s.algorithm),
	}
	if err != nil {
		e.metrics.ArchiveError("append")
		e.logger.Warn("archive append failed",
			zap.String("session", s.id),
			zap.Error(err),
		)
		return []Event{fin}
	}

	fin.Entry = &entry
	e.logger.Info("decay finished",
		zap.String("session", s.id),
		zap.String("algorithm", s.algorithm),
		zap.Int64("entry", entry.ID),
		zap.Int("ticks", s.ticks),
	)
	return []Event{fin, ArchiveUpdatedEvent{Type: EventArchiveUpdated, Entry: entry}}
}

// settle marks a finished session as settled and tells renderers to re-enable
// their controls. It is a no-op when a newer session has started.
func (e *Engine) settle(sessionID string) {
	e.mu.Lock()
	s := e.session
	if s == nil || s.id != sessionID || s.status != StatusFinished || s.settled {
		e.mu.Unlock()
		return
	}
	s.settled = true
	e.pubMu.Lock()
	e.mu.Unlock()
	defer e.pubMu.Unlock()

	e.publish(SettledEvent{Type: EventSettled, SessionID: sessionID})
}

// Run ticks at the configured interval until ctx is cancelled, then returns
// nil. Finished sessions settle after the settle delay.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	var (
		settleC  <-chan time.Time
		settleID string
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			res := e.Tick(ctx)
			if !res.Finished {
				continue
			}
			if e.settleDelay == 0 {
				e.emit(SettledEvent{Type: EventSettled, SessionID: res.SessionID})
				continue
			}
			settleID = res.SessionID
			settleC = time.After(e.settleDelay)
		case <-settleC:
			e.settle(settleID)
			settleC = nil
		}
	}
}

// Snapshot returns a copy of the current session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.snapshot()
}

// ClearArchive empties the archive and notifies subscribers.
func (e *Engine) ClearArchive(ctx context.Context) error {
	if err := e.archive.Clear(ctx); err != nil {
		e.metrics.ArchiveError("clear")
		return fmt.Errorf("clear archive: %w", err)
	}
	e.logger.Info("archive cleared")
	e.emit(ArchiveClearedEvent{Type: EventArchiveCleared})
	return nil
}
