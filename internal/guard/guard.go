// Package guard gates every page on the session state: it binds the browser
// session cookie, resolves the session before any protected handler runs and
// turns a mid-request credential rejection into a redirect to the login page.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/lucifer-699/EduCourseFrontend/internal/domain"
	"github.com/lucifer-699/EduCourseFrontend/internal/session"
	"github.com/lucifer-699/EduCourseFrontend/pkg/httputil"
	"github.com/lucifer-699/EduCourseFrontend/pkg/logger"
)

// Config holds route guard configuration.
type Config struct {
	CookieName   string
	CookieSecure bool
	// LoginPath receives anonymous visitors and forced logouts.
	LoginPath string
	// UnauthorizedPath receives authenticated visitors lacking the role.
	UnauthorizedPath string
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:       "session_id",
		LoginPath:        "/login",
		UnauthorizedPath: "/unauthorized",
	}
}

// Resolver resolves the state of a browser session.
type Resolver interface {
	Resolve(ctx context.Context, sid string) session.Snapshot
}

// Guard is the route guard middleware set.
type Guard struct {
	cfg      Config
	sessions Resolver
	logger   *slog.Logger
}

// New creates a guard.
func New(cfg Config, sessions Resolver, logger *slog.Logger) *Guard {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if cfg.UnauthorizedPath == "" {
		cfg.UnauthorizedPath = def.UnauthorizedPath
	}
	return &Guard{cfg: cfg, sessions: sessions, logger: logger}
}

// Sessions makes sure the browser holds a session cookie and binds its value
// to the request context.
func (g *Guard) Sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(g.cfg.CookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     g.cfg.CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   g.cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := session.WithID(r.Context(), sid)
		ctx = logger.WithSessionID(ctx, logger.ShortID(sid))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require lets a request through only once its session is resolved,
// authenticated and, when roles are given, holding one of them. It runs on
// every request, so a changed identity or route is always re-checked.
func (g *Guard) Require(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			snap := g.sessions.Resolve(ctx, session.IDFromContext(ctx))

			switch {
			case snap.State == session.StateResolving:
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Cache-Control", "no-store")
				httputil.WriteData(w, http.StatusServiceUnavailable, map[string]string{"state": "resolving"})
				return
			case !snap.Authenticated():
				httputil.Redirect(w, r, g.loginURL(r))
				return
			case !snap.HasRole(roles...):
				logger.FromContext(ctx).InfoContext(ctx, "role not allowed",
					slog.String("path", r.URL.Path),
					slog.String("role", string(snap.Identity.Role)),
				)
				httputil.Redirect(w, r, g.cfg.UnauthorizedPath)
				return
			}

			ctx = session.WithSnapshot(ctx, snap)
			ctx = logger.WithUserID(ctx, snap.Identity.ID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", snap.Identity.ID)))

			ctx, sig := session.WithSignal(ctx)
			fw := &forcedLogoutWriter{ResponseWriter: w, r: r, sig: sig, location: g.cfg.LoginPath}
			next.ServeHTTP(fw, r.WithContext(ctx))
			fw.finish()
		})
	}
}

// loginURL is the login page with the current location as its return target.
func (g *Guard) loginURL(r *http.Request) string {
	if r.Method != http.MethodGet {
		return g.cfg.LoginPath
	}
	return g.cfg.LoginPath + "?" + url.Values{"next": []string{r.URL.RequestURI()}}.Encode()
}
