// Package users declares the credential store contract and its PostgreSQL
// and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/quizdeck/internal/server/models"
)

// Repository persists identities and their password hashes.
//
// Lookups of a missing row return common.ErrorNotFound. Create returns
// common.ErrAlreadyRegistered when the email is already taken, whether or not
// the caller checked Exists first.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, email string) (bool, error)

	UpdateRole(ctx context.Context, id string, role models.Role) error
	UpdateActive(ctx context.Context, id string, active bool) error
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// CountActiveAdmins counts active administrators. Inside a transaction
	// the PostgreSQL implementation locks the counted rows.
	CountActiveAdmins(ctx context.Context) (int, error)
}
