package tenant

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/Zaaim-Halim/Humano-sub001/pkg/logger"
)

// Master is the sentinel identifier for platform level work against the master database.
const Master = "master"

// contextKey prevents collisions with other packages using context values
type contextKey struct{}

// scope is the mutable slot shared by every context derived from one Begin call.
type scope struct {
	id atomic.Pointer[string]
}

func (s *scope) load() (string, bool) {
	if p := s.id.Load(); p != nil {
		return *p, true
	}
	return "", false
}

func (s *scope) store(id string) {
	s.id.Store(&id)
}

func (s *scope) clear() {
	s.id.Store(nil)
}

// Release ends a tenant scope. It is safe to call more than once.
type Release func()

// Begin starts a unit of work for id and returns the scoped context together
// with its Release. Callers must defer the release so the scope is cleared on
// every exit path.
func Begin(ctx context.Context, id string) (context.Context, Release) {
	s := &scope{}
	if id != "" {
		s.store(id)
	}
	return context.WithValue(ctx, contextKey{}, s), s.clear
}

func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(contextKey{}).(*scope)
	return s
}

// SetCurrent stores id for the unit of work owning ctx. No validation is done.
func SetCurrent(ctx context.Context, id string) error {
	s := scopeFrom(ctx)
	if s == nil {
		return ErrNoScope
	}
	s.store(id)
	return nil
}

// Current returns the tenant of the unit of work, or "", false if none is set.
// Callers must treat a missing tenant as Master.
func Current(ctx context.Context) (string, bool) {
	s := scopeFrom(ctx)
	if s == nil {
		return "", false
	}
	return s.load()
}

// Clear removes the tenant from the scope of ctx. Clearing an empty scope is a no-op.
func Clear(ctx context.Context) {
	if s := scopeFrom(ctx); s != nil {
		s.clear()
	}
}

// IsMaster reports whether ctx runs at platform level.
func IsMaster(ctx context.Context) bool {
	id, ok := Current(ctx)
	return !ok || id == "" || id == Master
}

// HasTenant reports whether ctx is bound to a real tenant.
func HasTenant(ctx context.Context) bool {
	return !IsMaster(ctx)
}

// Inherit returns a context whose scope holds a copy of the current tenant.
// Later changes in either scope are not visible to the other.
func Inherit(ctx context.Context) context.Context {
	s := &scope{}
	if id, ok := Current(ctx); ok {
		s.store(id)
	}
	return context.WithValue(ctx, contextKey{}, s)
}

// Go runs fn in a new goroutine under an inherited scope and clears that scope
// when fn returns, including when it panics.
func Go(ctx context.Context, fn func(ctx context.Context)) {
	child := Inherit(ctx)
	go func() {
		defer Clear(child)
		fn(child)
	}()
}

// LoggerExtractor returns a function that enriches log records with tenant ID
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := Current(ctx); ok && id != "" {
			return logger.TenantID(id), true
		}
		return slog.Attr{}, false
	}
}
