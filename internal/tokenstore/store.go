// Package tokenstore persists the credential and identity of each browser
// session as one record.
package tokenstore

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/lucifer-699/EduCourseFrontend/pkg/errors"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
)

// ErrNotFound is returned by Load when a session has no record.
var ErrNotFound = fmt.Errorf("session record: %w", apperrors.ErrNotFound)

// Store persists one record per session id. Implementations must be safe
// for concurrent use. Delete of a missing id is not an error.
type Store interface {
	Load(ctx context.Context, sid string) (*domain.Record, error)
	Save(ctx context.Context, sid string, rec *domain.Record) error
	Delete(ctx context.Context, sid string) error
}

// Session exposes the token/identity operations of one browser session over
// its single persisted record.
type Session struct {
	store Store
	sid   string
}

// NewSession binds a store to a session id.
func NewSession(store Store, sid string) *Session {
	return &Session{store: store, sid: sid}
}

// ID returns the bound session id.
func (s *Session) ID() string { return s.sid }

// Record returns the stored record, or an empty one when nothing is stored.
func (s *Session) Record(ctx context.Context) (*domain.Record, error) {
	rec, err := s.store.Load(ctx, s.sid)
	if errors.Is(err, ErrNotFound) {
		return &domain.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session record: %w", err)
	}
	return rec, nil
}

// Replace overwrites the record in a single write.
func (s *Session) Replace(ctx context.Context, rec *domain.Record) error {
	if rec.Empty() {
		return s.Clear(ctx)
	}
	if err := s.store.Save(ctx, s.sid, rec); err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

// Clear deletes the record. Clearing an empty session is a no-op.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.sid); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// Token returns the stored credential, or nil when absent.
func (s *Session) Token(ctx context.Context) (*domain.Credential, error) {
	rec, err := s.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Credential, nil
}

// SetToken stores cred, keeping any identity.
func (s *Session) SetToken(ctx context.Context, cred domain.Credential) error {
	return s.update(ctx, func(rec *domain.Record) { rec.Credential = &cred })
}

// ClearToken removes the credential, keeping any identity.
func (s *Session) ClearToken(ctx context.Context) error {
	return s.update(ctx, func(rec *domain.Record) { rec.Credential = nil })
}

// Identity returns the cached identity, or nil when absent.
func (s *Session) Identity(ctx context.Context) (*domain.Identity, error) {
	rec, err := s.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Identity, nil
}

// SetIdentity caches id, keeping any credential.
func (s *Session) SetIdentity(ctx context.Context, id domain.Identity) error {
	return s.update(ctx, func(rec *domain.Record) { rec.Identity = &id })
}

// ClearIdentity removes the identity and the credential with it.
func (s *Session) ClearIdentity(ctx context.Context) error {
	return s.Clear(ctx)
}

func (s *Session) update(ctx context.Context, fn func(*domain.Record)) error {
	rec, err := s.Record(ctx)
	if err != nil {
		return err
	}
	fn(rec)
	return s.Replace(ctx, rec)
}
