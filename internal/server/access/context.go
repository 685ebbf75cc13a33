package access

import (
	"context"

	"github.com/dmitrijs2005/quizdeck/internal/server/auth"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
)

type principalKey struct{}

// WithPrincipal stores what a guard admitted.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// IdentityFromContext returns the identity admitted by a guard, if any.
func IdentityFromContext(ctx context.Context) (*models.User, bool) {
	p := principalFromContext(ctx)
	if p == nil || p.User == nil {
		return nil, false
	}
	return p.User, true
}

// ClaimsFromContext returns the verified claims of the admitted token.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	p := principalFromContext(ctx)
	if p == nil || p.Claims == nil {
		return nil, false
	}
	return p.Claims, true
}
