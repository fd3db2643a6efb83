// Package memory is an in-process tokenstore backend for development and
// tests. Records do not survive a restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/tokenstore"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store keeps records as JSON in a map, so callers never share memory with
// the stored value. A zero ttl disables expiry.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates an empty store whose records expire ttl after their last use.
func New(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load returns the record for sid and extends its expiry.
func (s *Store) Load(_ context.Context, sid string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sid]
	if !ok {
		return nil, tokenstore.ErrNotFound
	}
	if s.expired(e) {
		delete(s.entries, sid)
		return nil, tokenstore.ErrNotFound
	}
	e.expiresAt = s.expiry()
	s.entries[sid] = e

	var rec domain.Record
	if err := json.Unmarshal(e.data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	return &rec, nil
}

// Save stores rec under sid.
func (s *Store) Save(_ context.Context, sid string, rec *domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sid] = entry{data: data, expiresAt: s.expiry()}
	return nil
}

// Delete removes sid. Missing ids are ignored.
func (s *Store) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}

// Sweep drops expired records and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for sid, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, sid)
			n++
		}
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
