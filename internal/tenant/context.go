package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Header names carrying tenant identity on every request.
const (
	HeaderParentID = "X-Parent-Id"
	HeaderStoreID  = "X-Store-Id"
)

// SystemActor is the audit identity stamped on writes when no authenticated
// principal is available.
const SystemActor = "system"

// Context is the resolved tenant identity for one request. It is established
// once by the middleware and never mutated afterwards.
type Context struct {
	ParentID *uuid.UUID
	StoreID  *uuid.UUID
}

// HasParent reports whether a Parent (tenant) was resolved for the request.
func (t *Context) HasParent() bool {
	return t != nil && t.ParentID != nil
}

// HasStore reports whether a Store was resolved for the request.
func (t *Context) HasStore() bool {
	return t != nil && t.StoreID != nil
}

type ctxKey string

const (
	tenantKey ctxKey = "tenant_context"
	actorKey  ctxKey = "audit_actor"
)

// NewContext returns ctx carrying the given tenant context.
func NewContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, tenantKey, tc)
}

// FromContext retrieves the tenant context established for the request.
// The second return is false when no tenant middleware ran.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(tenantKey).(*Context)
	return tc, ok
}

// WithActor returns ctx carrying the audit actor identity.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Actor returns the audit identity for the request. Falls back to the system
// placeholder when no authenticated principal was attached.
func Actor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}
