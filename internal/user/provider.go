// AngelaMos | 2026
// provider.go

package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/cache"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/events"
)

// AuthProvider exposes users to the auth module. Lookups bypass the
// response caches so role changes are seen immediately.
type AuthProvider struct {
	svc *Service
}

var _ auth.UserProvider = (*AuthProvider)(nil)

func (s *Service) AuthProvider() *AuthProvider {
	return &AuthProvider{svc: s}
}

func (p *AuthProvider) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := p.svc.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (p *AuthProvider) GetByID(ctx context.Context, id int64) (*auth.UserInfo, error) {
	u, err := p.svc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

// Create registers a user with the USER role.
func (p *AuthProvider) Create(
	ctx context.Context,
	username, email, passwordHash string,
) (*auth.UserInfo, error) {
	u := &User{
		Username:     username,
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Roles:        NewRoleSet(core.RoleUser),
	}

	if err := p.svc.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	cache.Invalidation{
		Clear: []string{cache.AllUsers, cache.UsersPage},
	}.Apply(ctx, p.svc.cache)

	events.PublishSafe(ctx, p.svc.publisher, events.New(
		events.UserRegistered,
		events.EntityUser,
		u.ID,
		map[string]any{"username": u.Username, "email": u.Email},
	))

	return toUserInfo(u), nil
}

func (p *AuthProvider) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if err := p.svc.repo.UpdatePassword(ctx, id, passwordHash); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("User", "id", id)
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (p *AuthProvider) EmailExists(ctx context.Context, email string) (bool, error) {
	return p.svc.repo.ExistsByEmail(ctx, normalizeEmail(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Roles:        []string(u.Roles),
	}
}
