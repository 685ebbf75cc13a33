package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/quizdeck/internal/common"
	"github.com/dmitrijs2005/quizdeck/internal/logging"
	"github.com/dmitrijs2005/quizdeck/internal/server/auth"
	"github.com/dmitrijs2005/quizdeck/internal/server/config"
	"github.com/dmitrijs2005/quizdeck/internal/server/models"
	"github.com/dmitrijs2005/quizdeck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/quizdeck/internal/server/services"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type memoryBackend struct {
	users    *services.UserService
	opened   int
	closed   int
	migrated int
}

func newMemoryBackend(t *testing.T) *memoryBackend {
	t.Helper()
	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32})
	users, err := services.NewUserService(nil, repomanager.NewInMemoryRepositoryManager(), hasher, nil,
		&config.Config{}, logging.Nop{})
	require.NoError(t, err)
	return &memoryBackend{users: users}
}

func (m *memoryBackend) backend() Backend {
	return Backend{
		Open: func(context.Context, *config.Config) (Admin, io.Closer, error) {
			m.opened++
			return m.users, closerFunc(func() error { m.closed++; return nil }), nil
		},
		Migrate: func(context.Context, *config.Config) error {
			m.migrated++
			return nil
		},
	}
}

func run(t *testing.T, b Backend, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")

	root := NewRootCommand(b)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserCreate_PasswordStdin(t *testing.T) {
	m := newMemoryBackend(t)

	out, err := run(t, m.backend(), "s3cret\n", "user", "create", "--email", "Root@Example.com", "--role", "admin", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "email:     root@example.com")
	assert.Contains(t, out, "role:      admin")
	assert.Equal(t, 1, m.opened)
	assert.Equal(t, 1, m.closed)

	u, err := m.users.ResolveSubject(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.True(t, auth.NewArgon2idHasher().Verify("s3cret", u.PasswordHash))

	_, err = run(t, m.backend(), "other\n", "user", "create", "--email", "root@example.com", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUserCreate_Prompt(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	m := newMemoryBackend(t)

	readPassword = func(int) ([]byte, error) { return []byte("pw123"), nil }
	out, err := run(t, m.backend(), "", "user", "create", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "role:      user")

	answers := []string{"one", "two"}
	readPassword = func(int) ([]byte, error) {
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
	_, err = run(t, m.backend(), "", "user", "create", "--email", "bob@example.com")
	require.ErrorContains(t, err, "passwords do not match")

	readPassword = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	_, err = run(t, m.backend(), "", "user", "create", "--email", "bob@example.com")
	require.ErrorContains(t, err, "no tty")
}

func TestUserCreate_InvalidRole(t *testing.T) {
	m := newMemoryBackend(t)

	_, err := run(t, m.backend(), "pw\n", "user", "create", "--email", "a@example.com", "--role", "owner", "--password-stdin")
	require.ErrorContains(t, err, "invalid role")
	assert.Zero(t, m.opened)
}

func TestUserSetRoleAndActive(t *testing.T) {
	m := newMemoryBackend(t)
	ctx := context.Background()

	_, err := m.users.CreateUser(ctx, "root@example.com", "pw", models.RoleAdmin)
	require.NoError(t, err)
	_, err = m.users.CreateUser(ctx, "alice@example.com", "pw", models.RoleUser)
	require.NoError(t, err)

	_, err = run(t, m.backend(), "", "user", "disable", "--email", "root@example.com")
	require.ErrorContains(t, err, "last active admin")

	_, err = run(t, m.backend(), "", "user", "set-role", "--email", "root@example.com", "--role", "user")
	require.ErrorContains(t, err, "last active admin")

	out, err := run(t, m.backend(), "", "user", "set-role", "--email", "alice@example.com", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "role:      admin")

	out, err = run(t, m.backend(), "", "user", "disable", "--email", "root@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "is_active: false")

	out, err = run(t, m.backend(), "", "user", "enable", "--email", "root@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "is_active: true")

	_, err = run(t, m.backend(), "", "user", "enable", "--email", "nobody@example.com")
	require.ErrorContains(t, err, "not found")

	_, err = run(t, m.backend(), "", "user", "enable", "--email", "not an email")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestMigrate(t *testing.T) {
	m := newMemoryBackend(t)

	out, err := run(t, m.backend(), "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, "migrations applied\n", out)
	assert.Equal(t, 1, m.migrated)
}

func TestConfigErrorStopsCommand(t *testing.T) {
	m := newMemoryBackend(t)

	root := NewRootCommand(m.backend())
	t.Setenv("SECRET_KEY", "")
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"migrate"})

	err := root.ExecuteContext(context.Background())
	require.ErrorIs(t, err, common.ErrConfiguration)
	assert.Zero(t, m.migrated)
}
