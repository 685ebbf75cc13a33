// Package services contains server-side business logic. This file implements
// UserService: registration, login, logout and the administrative account
// operations, on top of the credential store and the auth primitives.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/quizdeck/internal/common"
	"github.com/dmitrijs2005/quizdeck/internal/dbx"
	"github.com/dmitrijs2005/quizdeck/internal/logging"
	"github.com/dmitrijs2005/quizdeck/internal/server/auth"
	"github.com/dmitrijs2005/quizdeck/internal/server/config"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/repomanager"
)

// Token is the result of a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserService authenticates users and manages their accounts.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	hasher                      auth.PasswordHasher
	tokens                      *auth.TokenService
	logger                      logging.Logger
	accessTokenValidityDuration time.Duration
	now                         func() time.Time

	// dummyHash is verified when the email is unknown so that both login
	// failures cost one hash verification.
	dummyHash string
}

// NewUserService wires a UserService. db may be nil when m is an in-memory
// manager.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	tokens *auth.TokenService, cfg *config.Config, logger logging.Logger) (*UserService, error) {

	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &UserService{
		db:                          db,
		repomanager:                 m,
		hasher:                      hasher,
		tokens:                      tokens,
		logger:                      logger,
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		now:                         time.Now,
		dummyHash:                   dummy,
	}, nil
}

// Register creates an active account with the default role.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	return s.createUser(ctx, email, password, models.DefaultRole)
}

// CreateUser creates an active account with an explicit role. It is the
// administrative path used to bootstrap the first admin.
func (s *UserService) CreateUser(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
	return s.createUser(ctx, email, password, role)
}

func (s *UserService) createUser(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking user: %w", err)
	}
	if exists {
		return nil, common.ErrAlreadyRegistered
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// a concurrent registration can still win between Exists and Create;
	// the unique index reports it as ErrAlreadyRegistered
	u, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: role, IsActive: true})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

// Login checks credentials and issues an access token. An unknown email, a
// wrong password and a disabled account are all ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*Token, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrInvalidCredentials
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}

	access, _, err := s.tokens.Issue(user.Email, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	return &Token{AccessToken: access, TokenType: common.TokenTypeBearer}, nil
}

func (s *UserService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repomanager.Users(s.db).UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		s.logger.Warn(ctx, "password hash upgrade failed", "user_id", userID, "error", err)
		return
	}
	s.logger.Info(ctx, "password hash upgraded", "user_id", userID)
}

// Logout revokes the presented token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return common.ErrInvalidToken
	}
	if err := s.repomanager.RevokedTokens(s.db).Create(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// ResolveSubject returns the identity a token subject names.
func (s *UserService) ResolveSubject(ctx context.Context, subject string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetUserByEmail(ctx, subject)
}

// IsRevoked reports whether a token id was logged out.
func (s *UserService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.repomanager.RevokedTokens(s.db).Exists(ctx, jti)
}

// PurgeRevoked drops denylist entries for tokens that have expired.
func (s *UserService) PurgeRevoked(ctx context.Context) (int64, error) {
	return s.repomanager.RevokedTokens(s.db).DeleteExpired(ctx, s.now())
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// SetRole changes a user's role. Demoting the last active admin fails with
// ErrLastAdmin.
func (s *UserService) SetRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}

	return s.mutateUser(ctx, userID, func(ctx context.Context, user *models.User, tx dbx.DBTX) error {
		if role != models.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx, user, tx); err != nil {
				return err
			}
		}
		if err := s.repomanager.Users(tx).UpdateRole(ctx, userID, role); err != nil {
			return err
		}
		user.Role = role
		return nil
	})
}

// SetActive enables or disables an account. Disabling the last active admin
// fails with ErrLastAdmin.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) (*models.User, error) {
	return s.mutateUser(ctx, userID, func(ctx context.Context, user *models.User, tx dbx.DBTX) error {
		if !active {
			if err := s.ensureAnotherAdmin(ctx, user, tx); err != nil {
				return err
			}
		}
		if err := s.repomanager.Users(tx).UpdateActive(ctx, userID, active); err != nil {
			return err
		}
		user.IsActive = active
		return nil
	})
}

func (s *UserService) mutateUser(ctx context.Context, userID string,
	fn func(ctx context.Context, user *models.User, tx dbx.DBTX) error) (*models.User, error) {

	var user *models.User
	err := s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		return fn(ctx, user, tx)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user updated", "user_id", user.ID, "role", string(user.Role), "is_active", user.IsActive)
	return user, nil
}

// ensureAnotherAdmin fails when user is the only active admin left.
func (s *UserService) ensureAnotherAdmin(ctx context.Context, user *models.User, tx dbx.DBTX) error {
	if user.Role != models.RoleAdmin || !user.IsActive {
		return nil
	}
	n, err := s.repomanager.Users(tx).CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return common.ErrLastAdmin
	}
	return nil
}

// NormalizeEmail trims and lower-cases email and checks it is a bare
// address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	return email, nil
}
