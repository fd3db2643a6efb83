package session

import (
	"context"
	"sync/atomic"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	snapshotKey
	signalKey
	tokenOverrideKey
)

// WithID binds a browser session id to ctx.
func WithID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sid)
}

// IDFromContext returns the browser session id bound to ctx.
func IDFromContext(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionIDKey).(string); ok {
		return sid
	}
	return ""
}

// WithSnapshot stores the resolved session state in ctx.
func WithSnapshot(ctx context.Context, s Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey, s)
}

// SnapshotFromContext returns the resolved session state. A context that was
// never resolved reports StateUninitialized.
func SnapshotFromContext(ctx context.Context) Snapshot {
	if s, ok := ctx.Value(snapshotKey).(Snapshot); ok {
		return s
	}
	return Snapshot{State: StateUninitialized}
}

// Signal is raised when the session of the current request has been torn
// down because the API rejected its credential. It is safe for concurrent use.
type Signal struct {
	fired atomic.Bool
}

// Fire raises the signal. Raising it again has no further effect.
func (s *Signal) Fire() { s.fired.Store(true) }

// Fired reports whether the signal has been raised.
func (s *Signal) Fired() bool { return s.fired.Load() }

// WithSignal installs a fresh forced-logout signal in ctx.
func WithSignal(ctx context.Context) (context.Context, *Signal) {
	sig := &Signal{}
	return context.WithValue(ctx, signalKey, sig), sig
}

// SignalFromContext returns the forced-logout signal of the request, or nil.
func SignalFromContext(ctx context.Context) *Signal {
	sig, _ := ctx.Value(signalKey).(*Signal)
	return sig
}

// withToken pins the credential used for calls made with ctx, for requests
// issued after the session record is already gone.
func withToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenOverrideKey, token)
}

func tokenOverride(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenOverrideKey).(string)
	return token, ok
}
