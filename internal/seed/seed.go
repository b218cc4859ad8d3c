// AngelaMos | 2026
// seed.go

package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/cache"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/user"
)

type Result struct {
	AdminCreated bool
	DemoCreated  int
	DemoSkipped  int
}

type Seeder struct {
	atomic func(ctx context.Context, fn func(user.Repository) error) error
	cache  cache.Store
	hash   func(string) (string, error)
}

func New(repo user.Repository, store cache.Store) *Seeder {
	return &Seeder{
		atomic: func(_ context.Context, fn func(user.Repository) error) error {
			return fn(repo)
		},
		cache: store,
		hash:  core.HashPassword,
	}
}

// NewTransactional seeds inside a single transaction, so a failed run
// leaves no partial data behind.
func NewTransactional(db *sqlx.DB, store cache.Store) *Seeder {
	s := New(nil, store)
	s.atomic = func(ctx context.Context, fn func(user.Repository) error) error {
		return core.InTx(ctx, db, nil, func(tx *sqlx.Tx) error {
			return fn(user.NewRepository(tx))
		})
	}
	return s
}

// Run creates the bootstrap admin and the demo users. Accounts whose email
// already exists are left untouched, so repeated starts are harmless.
func (s *Seeder) Run(ctx context.Context, cfg config.SeedConfig) (Result, error) {
	var res Result

	err := s.atomic(ctx, func(repo user.Repository) error {
		res = Result{}
		return s.seed(ctx, repo, cfg, &res)
	})
	if err != nil {
		return Result{}, err
	}

	if res.AdminCreated || res.DemoCreated > 0 {
		cache.Invalidation{Clear: cache.UserCaches}.Apply(ctx, s.cache)
	}

	slog.InfoContext(ctx, "seed complete",
		"admin_created", res.AdminCreated,
		"demo_created", res.DemoCreated,
		"demo_skipped", res.DemoSkipped,
	)

	return res, nil
}

func (s *Seeder) seed(
	ctx context.Context,
	repo user.Repository,
	cfg config.SeedConfig,
	res *Result,
) error {
	if cfg.AdminEmail != "" {
		created, err := s.ensureUser(ctx, repo, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword,
			user.NewRoleSet(core.RoleUser, core.RoleAdmin))
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		res.AdminCreated = created
	}

	if cfg.DemoUsers <= 0 {
		return nil
	}

	hash, err := s.hash(cfg.DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	for i := 1; i <= cfg.DemoUsers; i++ {
		u := &user.User{
			Username:     fmt.Sprintf("User %d", i),
			Email:        fmt.Sprintf("user%d@email.com", i),
			PasswordHash: hash,
			Roles:        user.NewRoleSet(core.RoleUser),
		}

		created, err := createIfAbsent(ctx, repo, u)
		if err != nil {
			return fmt.Errorf("seed demo user %d: %w", i, err)
		}
		if created {
			res.DemoCreated++
		} else {
			res.DemoSkipped++
		}
	}

	return nil
}

func (s *Seeder) ensureUser(
	ctx context.Context,
	repo user.Repository,
	username, email, password string,
	roles user.RoleSet,
) (bool, error) {
	hash, err := s.hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	return createIfAbsent(ctx, repo, &user.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Roles:        roles,
	})
}

func createIfAbsent(ctx context.Context, repo user.Repository, u *user.User) (bool, error) {
	exists, err := repo.ExistsByEmail(ctx, u.Email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := repo.Create(ctx, u); err != nil {
		return false, err
	}

	return true, nil
}
