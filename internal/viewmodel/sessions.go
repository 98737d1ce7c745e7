package viewmodel

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type session struct {
	catalog *Catalog
	ready   chan struct{}
	err     error
}

// Sessions keeps one Catalog per operator.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	source   Source
	cfg      Config
	log      *zap.Logger
	closed   bool
}

// NewSessions creates an empty registry whose catalogs read from source.
func NewSessions(source Source, cfg Config) *Sessions {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{
		sessions: make(map[string]*session),
		source:   source,
		cfg:      cfg,
		log:      log,
	}
}

// Source returns the source the catalogs read from.
func (s *Sessions) Source() Source {
	return s.source
}

// Get returns the operator's catalog, creating and loading it on first use.
// A caller that waited on someone else's load tries again when that load was
// cut short by its own context.
func (s *Sessions) Get(ctx context.Context, operatorID string) (*Catalog, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrDiscarded
		}
		e, ok := s.sessions[operatorID]
		if !ok {
			break
		}
		s.mu.Unlock()

		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err == nil {
			return e.catalog, nil
		}
		if !abandoned(e.err) || ctx.Err() != nil {
			return nil, e.err
		}
	}

	e := &session{
		catalog: New(s.cfg),
		ready:   make(chan struct{}),
	}
	s.sessions[operatorID] = e
	s.mu.Unlock()

	e.err = e.catalog.Sync(ctx, s.source)
	if e.err != nil {
		s.mu.Lock()
		if s.sessions[operatorID] == e {
			delete(s.sessions, operatorID)
		}
		s.mu.Unlock()
		e.catalog.Close()
	}
	close(e.ready)
	if e.err != nil {
		return nil, e.err
	}
	return e.catalog, nil
}

// abandoned reports whether a load failed because its caller went away.
func abandoned(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrDiscarded)
}

func (s *Sessions) loaded() map[string]*Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Catalog, len(s.sessions))
	for id, e := range s.sessions {
		select {
		case <-e.ready:
			if e.err == nil {
				out[id] = e.catalog
			}
		default:
		}
	}
	return out
}

// RefreshAll re-fetches every loaded catalog, keeping each operator's active
// filter. Superseded fetches are not errors.
func (s *Sessions) RefreshAll(ctx context.Context) error {
	var errs []error
	for id, c := range s.loaded() {
		if err := c.SyncKeepingFilter(ctx, s.source); err != nil && !errors.Is(err, ErrDiscarded) {
			s.log.Warn("catalog refresh failed", zap.String("operator_id", id), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run refreshes all catalogs every interval until ctx is done. A non-positive
// interval returns immediately.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RefreshAll(ctx)
		}
	}
}

// Len returns the number of loaded catalogs.
func (s *Sessions) Len() int {
	return len(s.loaded())
}

// Close closes and forgets every catalog.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, e := range s.sessions {
		e.catalog.Close()
		delete(s.sessions, id)
	}
}
