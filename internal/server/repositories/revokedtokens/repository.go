// Package revokedtokens stores the access-token denylist: token ids (jti)
// that were logged out before their natural expiry.
package revokedtokens

import (
	"context"
	"time"
)

// Repository records revoked token ids.
type Repository interface {
	// Create revokes jti until expiresAt. Revoking the same id twice is not
	// an error.
	Create(ctx context.Context, jti string, expiresAt time.Time) error

	// Exists reports whether jti is currently revoked.
	Exists(ctx context.Context, jti string) (bool, error)

	// DeleteExpired purges entries whose token would be expired anyway at
	// now, returning how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
