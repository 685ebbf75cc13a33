// Package access gates HTTP routes by role. A Guard resolves the caller from
// the Authorization header and accepts or rejects the request before the
// route handler runs.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/quizdeck/internal/common"
	"github.com/dmitrijs2005/quizdeck/internal/server/auth"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
)

// Principal is what a guard admitted: the live identity and the verified
// claims of the token it presented.
type Principal struct {
	User   *models.User
	Claims *auth.Claims
}

// Guard decides whether the bearer of an Authorization header value may
// proceed. It returns the admitted principal on success, an error matching
// common.ErrUnauthenticated or common.ErrForbidden on rejection, and any
// other error when the decision could not be made.
type Guard interface {
	Check(ctx context.Context, authorization string) (*Principal, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type IdentityResolver interface {
	ResolveSubject(ctx context.Context, subject string) (*models.User, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// GuardDependencies are the collaborators of a RoleGuard. Revocations is
// optional; without it logged-out tokens stay valid until they expire.
type GuardDependencies struct {
	Tokens      TokenVerifier
	Identities  IdentityResolver
	Revocations RevocationChecker
}

// RoleGuard admits active identities whose role is in a fixed set.
type RoleGuard struct {
	deps  GuardDependencies
	roles map[models.Role]struct{}
}

// NewRoleGuard builds a guard for the given role set. The set is copied and
// never changes afterwards.
func NewRoleGuard(deps GuardDependencies, roles ...models.Role) (*RoleGuard, error) {
	if deps.Tokens == nil || deps.Identities == nil {
		return nil, errors.New("role guard requires a token verifier and an identity resolver")
	}
	if len(roles) == 0 {
		return nil, errors.New("role guard requires at least one role")
	}

	set := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("role guard: unknown role %q", r)
		}
		set[r] = struct{}{}
	}
	return &RoleGuard{deps: deps, roles: set}, nil
}

// Allows reports whether role is in the guard's set.
func (g *RoleGuard) Allows(role models.Role) bool {
	_, ok := g.roles[role]
	return ok
}

func (g *RoleGuard) Check(ctx context.Context, authorization string) (*Principal, error) {
	token, err := auth.ParseBearer(authorization)
	if err != nil {
		return nil, err
	}

	claims, err := g.deps.Tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	if g.deps.Revocations != nil {
		revoked, err := g.deps.Revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, common.ErrTokenRevoked)
		}
	}

	user, err := g.deps.Identities.ResolveSubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", common.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account disabled", common.ErrUnauthenticated)
	}

	if !g.Allows(user.Role) {
		return nil, common.ErrForbidden
	}
	return &Principal{User: user, Claims: claims}, nil
}
