// Package session owns the authentication state of each browser session:
// resolving it per request, establishing it on login and tearing it down on
// logout or when the LMS API rejects the credential.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/event"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
	"github.com/lucifer-699/EduCourseFrontend/internal/lmsapi"
	"github.com/lucifer-699/EduCourseFrontend/internal/tokenstore"
	apperrors "github.com/lucifer-699/EduCourseFrontend/pkg/errors"
	"github.com/lucifer-699/EduCourseFrontend/pkg/logger"
)

const defaultLogoutTimeout = 5 * time.Second

// State is the authentication state of a session.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Snapshot is the resolved state of a session for one request. Identity is
// set only when State is StateAuthenticated.
type Snapshot struct {
	State    State
	Identity *domain.Identity
}

// Authenticated reports whether the snapshot carries an identity.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

// HasRole reports whether the identity holds one of roles. An empty roles
// list accepts any authenticated identity.
func (s Snapshot) HasRole(roles ...domain.Role) bool {
	if !s.Authenticated() {
		return false
	}
	return len(roles) == 0 || slices.Contains(roles, s.Identity.Role)
}

// AuthAPI is the part of the LMS API the manager talks to.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (lmsapi.LoginResponse, error)
	Register(ctx context.Context, req lmsapi.RegisterRequest) (lmsapi.LoginResponse, error)
	Refresh(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context) error
}

// Manager is the single owner of session state. One instance is built at
// startup and shared by the guard and the handlers.
type Manager struct {
	store         tokenstore.Store
	auth          AuthAPI
	events        event.Publisher
	logger        *slog.Logger
	logoutTimeout time.Duration

	background sync.WaitGroup
}

// NewManager creates a session manager. events may be nil.
func NewManager(store tokenstore.Store, auth AuthAPI, events event.Publisher, logger *slog.Logger) *Manager {
	if events == nil {
		events = event.Noop{}
	}
	return &Manager{
		store:         store,
		auth:          auth,
		events:        events,
		logger:        logger,
		logoutTimeout: defaultLogoutTimeout,
	}
}

// Resolve reads the stored record of sid once. Partial records are cleared.
// A store failure yields StateResolving, never StateAuthenticated.
func (m *Manager) Resolve(ctx context.Context, sid string) Snapshot {
	snap := m.resolve(ctx, sid)
	resolutions.WithLabelValues(snap.State.String()).Inc()
	return snap
}

func (m *Manager) resolve(ctx context.Context, sid string) Snapshot {
	if sid == "" {
		return Snapshot{State: StateAnonymous}
	}

	sess := tokenstore.NewSession(m.store, sid)
	rec, err := sess.Record(ctx)
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "session store unavailable",
			slog.String("error", err.Error()),
		)
		return Snapshot{State: StateResolving}
	}

	if rec.Complete() {
		id := *rec.Identity
		return Snapshot{State: StateAuthenticated, Identity: &id}
	}

	if !rec.Empty() {
		if err := sess.Clear(ctx); err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "failed to clear partial session",
				slog.String("error", err.Error()),
			)
		}
	}
	return Snapshot{State: StateAnonymous}
}

// Login authenticates against the API and persists the credential and the
// identity in one write.
func (m *Manager) Login(ctx context.Context, sid, email, password string) (domain.Identity, error) {
	resp, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return domain.Identity{}, err
	}
	return m.establish(ctx, sid, "/auth/login", email, "", resp)
}

// Register creates an account and signs it in.
func (m *Manager) Register(ctx context.Context, sid string, req lmsapi.RegisterRequest) (domain.Identity, error) {
	resp, err := m.auth.Register(ctx, req)
	if err != nil {
		return domain.Identity{}, err
	}
	return m.establish(ctx, sid, "/auth/register", req.Email, req.Name, resp)
}

func (m *Manager) establish(ctx context.Context, sid, path, email, name string, resp lmsapi.LoginResponse) (domain.Identity, error) {
	role, ok := domain.ParseRole(resp.Role)
	if resp.Token == "" || !ok {
		return domain.Identity{}, &gateway.APIError{
			Status:  http.StatusOK,
			Message: gateway.MsgInvalidResponse,
			Details: map[string]any{},
			Method:  http.MethodPost,
			Path:    path,
		}
	}

	sess := tokenstore.NewSession(m.store, sid)

	var cached *domain.Identity
	if prev, err := sess.Record(ctx); err == nil {
		cached = prev.Identity
	}

	id := domain.NewIdentity(email, name, role, cached)
	rec := &domain.Record{
		Credential: &domain.Credential{Token: resp.Token},
		Identity:   &id,
	}
	if err := sess.Replace(ctx, rec); err != nil {
		return domain.Identity{}, apperrors.ServiceUnavailable("session store unavailable", err)
	}

	transitions.WithLabelValues("login").Inc()
	m.publish(ctx, event.TypeSessionLogin, func(ctx context.Context) error {
		return m.events.PublishLogin(ctx, sid, id)
	})

	logger.FromContext(ctx).InfoContext(ctx, "user signed in",
		slog.String("user_id", id.ID),
		slog.String("role", string(id.Role)),
	)
	return id, nil
}

// Refresh exchanges the stored token for a new one.
func (m *Manager) Refresh(ctx context.Context, sid string) error {
	sess := tokenstore.NewSession(m.store, sid)
	rec, err := sess.Record(ctx)
	if err != nil {
		return apperrors.ServiceUnavailable("session store unavailable", err)
	}
	if !rec.Complete() {
		return apperrors.Unauthorized("not signed in")
	}

	token, err := m.auth.Refresh(ctx, rec.Credential.Token)
	if err != nil {
		return err
	}
	if token == "" {
		return &gateway.APIError{
			Status:  http.StatusOK,
			Message: gateway.MsgInvalidResponse,
			Details: map[string]any{},
			Method:  http.MethodPost,
			Path:    "/auth/refresh",
		}
	}

	rec.Credential = &domain.Credential{Token: token}
	if err := sess.Replace(ctx, rec); err != nil {
		return apperrors.ServiceUnavailable("session store unavailable", err)
	}
	transitions.WithLabelValues("refresh").Inc()
	return nil
}

// Logout clears the session locally and then tells the API in the
// background. The API call never affects the outcome.
func (m *Manager) Logout(ctx context.Context, sid string) error {
	sess := tokenstore.NewSession(m.store, sid)

	var token string
	var identity *domain.Identity
	signedIn := false
	if rec, err := sess.Record(ctx); err == nil && !rec.Empty() {
		signedIn = true
		identity = rec.Identity
		if rec.Credential != nil {
			token = rec.Credential.Token
		}
	}

	if err := sess.Clear(ctx); err != nil {
		return apperrors.ServiceUnavailable("session store unavailable", err)
	}

	if signedIn {
		transitions.WithLabelValues("logout").Inc()
		m.publish(ctx, event.TypeSessionLogout, func(ctx context.Context) error {
			return m.events.PublishLogout(ctx, sid, identity)
		})
	}

	if token != "" {
		m.notifyLogout(ctx, token)
	}
	return nil
}

// notifyLogout revokes token remotely. The call runs outside the browser
// session: a 401 for the revoked token must never reach a record that was
// created for the same sid after this logout.
func (m *Manager) notifyLogout(ctx context.Context, token string) {
	detached := logger.NewContext(context.Background(), logger.FromContext(ctx))
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		detached = logger.WithCorrelationID(detached, id)
	}

	m.background.Add(1)
	go func() {
		defer m.background.Done()

		ctx, cancel := context.WithTimeout(detached, m.logoutTimeout)
		defer cancel()

		if err := m.auth.Logout(withToken(ctx, token)); err != nil {
			logger.FromContext(ctx).DebugContext(ctx, "remote logout failed",
				slog.String("error", err.Error()),
			)
		}
	}()
}

// HandleUnauthorized tears down the session bound to ctx after the API
// rejected its credential. It is subscribed to the gateway and may run
// several times for one request. A rejection of a token the session no
// longer holds, after a refresh or a new login, leaves the session alone.
func (m *Manager) HandleUnauthorized(ctx context.Context, apiErr *gateway.APIError) {
	sid := IDFromContext(ctx)
	if sid == "" {
		if sig := SignalFromContext(ctx); sig != nil {
			sig.Fire()
		}
		return
	}

	// The teardown must complete even when the request is being canceled.
	ctx = context.WithoutCancel(ctx)
	sess := tokenstore.NewSession(m.store, sid)

	rec, _ := sess.Record(ctx)
	if stale(rec, apiErr) {
		logger.FromContext(ctx).DebugContext(ctx, "ignoring 401 for a replaced credential")
		return
	}
	if sig := SignalFromContext(ctx); sig != nil {
		sig.Fire()
	}

	if err := sess.Clear(ctx); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "failed to clear expired session",
			slog.String("error", err.Error()),
		)
		return
	}
	if rec.Empty() {
		return
	}

	transitions.WithLabelValues("expired").Inc()
	m.publish(ctx, event.TypeSessionExpired, func(ctx context.Context) error {
		return m.events.PublishExpired(ctx, sid, rec.Identity)
	})
	logger.FromContext(ctx).InfoContext(ctx, "session expired by api")
}

// stale reports whether the stored credential differs from the one the API
// rejected.
func stale(rec *domain.Record, apiErr *gateway.APIError) bool {
	if rec == nil || rec.Credential == nil || apiErr == nil {
		return false
	}
	return rec.Credential.Token != apiErr.Credential
}

// Token implements gateway.TokenSource for the session bound to ctx.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if token, ok := tokenOverride(ctx); ok {
		return token, nil
	}

	sid := IDFromContext(ctx)
	if sid == "" {
		return "", nil
	}

	cred, err := tokenstore.NewSession(m.store, sid).Token(ctx)
	if err != nil {
		return "", fmt.Errorf("session %s: %w", logger.ShortID(sid), err)
	}
	if cred == nil {
		return "", nil
	}
	return cred.Token, nil
}

// Wait blocks until background logout notifications finish or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) publish(ctx context.Context, eventType string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "failed to publish session event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
