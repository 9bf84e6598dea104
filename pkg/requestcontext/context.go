// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and handlers read them. Keeping the
// package free of net/http dependencies lets domain code import it without
// pulling in transport concerns.
//
// Usage in services (read values):
//
//	viewer := requestcontext.Viewer(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithViewer(ctx, viewer)
package requestcontext

import (
	"context"
	"time"

	id "patrimonio/pkg/domain"
)

// ViewerContext is the per-request identity the access-control model consumes.
// It is derived from the bearer token by the auth middleware; requests without
// a valid token get the zero value, whose role normalizes to anonymous.
type ViewerContext struct {
	UserID    id.UserID
	SessionID id.SessionID
	Role      id.Role
}

// EffectiveRole returns the viewer's role, treating the zero value and any
// unsupported role as anonymous. Fail closed: a malformed viewer never gains
// capability.
func (v ViewerContext) EffectiveRole() id.Role {
	if !v.Role.Valid() {
		return id.RoleAnonymous
	}
	return v.Role
}

// Authenticated reports whether the viewer carries a real user identity.
func (v ViewerContext) Authenticated() bool {
	return v.UserID != (id.UserID{})
}

type (
	viewerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithViewer stores the viewer context for downstream services.
func WithViewer(ctx context.Context, viewer ViewerContext) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewer)
}

// Viewer extracts the viewer context; the zero value means anonymous.
func Viewer(ctx context.Context) ViewerContext {
	viewer, _ := ctx.Value(viewerKey{}).(ViewerContext)
	return viewer
}

// WithRequestID stores the correlation ID assigned by middleware.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID extracts the correlation ID, empty if middleware did not run.
func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// WithTime pins the request time; tests use it to make time-dependent
// behavior deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
