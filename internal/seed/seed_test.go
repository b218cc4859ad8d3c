// AngelaMos | 2026
// seed_test.go

package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/cache"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/user"
)

// fakeRepo implements only what the seeder calls.
type fakeRepo struct {
	user.Repository
	users     map[string]*user.User
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*user.User)}
}

func (r *fakeRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := r.users[email]
	return ok, nil
}

func (r *fakeRepo) Create(_ context.Context, u *user.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	u.ID = int64(len(r.users) + 1)
	r.users[u.Email] = u
	return nil
}

func newTestSeeder(repo *fakeRepo) (*Seeder, *int) {
	calls := 0
	s := New(repo, cache.Nop{})
	s.hash = func(p string) (string, error) {
		calls++
		return "hashed:" + p, nil
	}
	return s, &calls
}

func TestSeedAdminAndDemoUsers(t *testing.T) {
	repo := newFakeRepo()
	s, hashCalls := newTestSeeder(repo)

	res, err := s.Run(context.Background(), config.SeedConfig{
		AdminUsername: "admin",
		AdminEmail:    "Admin@Example.com",
		AdminPassword: "supersecret",
		DemoUsers:     3,
		DemoPassword:  "demo123",
	})
	require.NoError(t, err)

	assert.True(t, res.AdminCreated)
	assert.Equal(t, 3, res.DemoCreated)
	assert.Equal(t, 2, *hashCalls, "demo users share one hash")

	admin := repo.users["admin@example.com"]
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, "hashed:supersecret", admin.PasswordHash)

	demo := repo.users["user2@email.com"]
	require.NotNil(t, demo)
	assert.Equal(t, "User 2", demo.Username)
	assert.Equal(t, user.RoleSet{core.RoleUser}, demo.Roles)
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	s, _ := newTestSeeder(repo)
	cfg := config.SeedConfig{
		AdminUsername: "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "supersecret",
		DemoUsers:     2,
		DemoPassword:  "demo123",
	}

	_, err := s.Run(context.Background(), cfg)
	require.NoError(t, err)

	res, err := s.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.AdminCreated)
	assert.Equal(t, 0, res.DemoCreated)
	assert.Equal(t, 2, res.DemoSkipped)
	assert.Len(t, repo.users, 3)
}

func TestSeedNothingConfigured(t *testing.T) {
	repo := newFakeRepo()
	s, hashCalls := newTestSeeder(repo)

	res, err := s.Run(context.Background(), config.SeedConfig{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, *hashCalls)
}

func TestSeedPropagatesErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db down")
	s, _ := newTestSeeder(repo)

	_, err := s.Run(context.Background(), config.SeedConfig{DemoUsers: 1, DemoPassword: "x"})
	assert.ErrorContains(t, err, "seed demo user 1")
}

func newTransactionalSeeder(t *testing.T) (*Seeder, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewTransactional(sqlx.NewDb(db, "pgx"), cache.Nop{})
	s.hash = func(p string) (string, error) { return "hashed:" + p, nil }
	return s, mock
}

func TestTransactionalSeedCommits(t *testing.T) {
	s, mock := newTransactionalSeeder(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1\)`).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))
	mock.ExpectCommit()

	res, err := s.Run(context.Background(), config.SeedConfig{
		AdminUsername: "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "supersecret",
	})
	require.NoError(t, err)
	assert.True(t, res.AdminCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionalSeedRollsBack(t *testing.T) {
	s, mock := newTransactionalSeeder(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	res, err := s.Run(context.Background(), config.SeedConfig{
		DemoUsers:    2,
		DemoPassword: "demo123",
	})
	require.ErrorContains(t, err, "seed demo user 2")
	assert.Equal(t, Result{}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}
