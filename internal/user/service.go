// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/storefront/internal/cache"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/events"
	"github.com/carterperez-dev/storefront/internal/product"
)

const (
	DefaultPageSize = 5
	allKey          = "all"
)

// ProductLookup resolves products for association changes.
type ProductLookup interface {
	GetByID(ctx context.Context, id int64) (*product.Product, error)
}

type Service struct {
	repo      Repository
	products  ProductLookup
	cache     cache.Store
	publisher events.Publisher
}

func NewService(
	repo Repository,
	products ProductLookup,
	store cache.Store,
	publisher events.Publisher,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		cache:     store,
		publisher: publisher,
	}
}

func (s *Service) ListAllUsers(ctx context.Context) ([]UserResponse, error) {
	return cache.Fetch(ctx, s.cache, cache.AllUsers, allKey,
		func(ctx context.Context) ([]UserResponse, error) {
			users, err := s.repo.ListAll(ctx)
			if err != nil {
				return nil, err
			}
			return s.withProducts(ctx, users)
		})
}

func (s *Service) ListUsers(
	ctx context.Context,
	req core.PageRequest,
) (core.Page[UserResponse], error) {
	req.Normalize(DefaultPageSize)

	return cache.Fetch(ctx, s.cache, cache.UsersPage, req.CacheKey(),
		func(ctx context.Context) (core.Page[UserResponse], error) {
			users, total, err := s.repo.List(ctx, req)
			if err != nil {
				return core.Page[UserResponse]{}, err
			}

			content, err := s.withProducts(ctx, users)
			if err != nil {
				return core.Page[UserResponse]{}, err
			}

			return core.NewPage(content, req, total), nil
		})
}

func (s *Service) GetUser(ctx context.Context, id int64) (UserResponse, error) {
	return cache.Fetch(ctx, s.cache, cache.User, strconv.FormatInt(id, 10),
		func(ctx context.Context) (UserResponse, error) {
			user, err := s.getByID(ctx, id)
			if err != nil {
				return UserResponse{}, err
			}
			return s.toResponse(ctx, user)
		})
}

// UpdateUser applies the username and email when they are non-empty and
// differ from the stored values. A new email must not belong to another
// user.
func (s *Service) UpdateUser(
	ctx context.Context,
	id int64,
	req UpdateUserRequest,
) (UserResponse, error) {
	ctx, span := core.StartSpan(ctx, "user.update", attribute.Int64("user.id", id))
	defer span.End()

	user, err := s.getByID(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	changed := false

	username := strings.TrimSpace(req.Username)
	if username != "" && username != user.Username {
		user.Username = username
		changed = true
	}

	email := normalizeEmail(req.Email)
	if email != "" && email != user.Email {
		exists, err := s.repo.ExistsByEmailExcludingID(ctx, email, id)
		if err != nil {
			return UserResponse{}, err
		}
		if exists {
			slog.WarnContext(ctx, "email already in use", "email", email)
			return UserResponse{}, core.FieldConflictError("email", email)
		}
		user.Email = email
		changed = true
	}

	if changed {
		if err := s.repo.Update(ctx, user); err != nil {
			switch {
			case errors.Is(err, core.ErrDuplicateKey):
				return UserResponse{}, core.FieldConflictError("email", user.Email)
			case errors.Is(err, core.ErrNotFound):
				return UserResponse{}, core.NotFoundError("User", "id", id)
			}
			return UserResponse{}, err
		}

		s.invalidate(ctx, id, true)

		events.PublishSafe(ctx, s.publisher, events.New(
			events.UserUpdated,
			events.EntityUser,
			id,
			map[string]any{"username": user.Username, "email": user.Email},
		))

		slog.InfoContext(ctx, "user updated", "user_id", id)
	}

	return s.toResponse(ctx, user)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	currentUserID int64,
	req UpdateUserRequest,
) (UserResponse, error) {
	return s.UpdateUser(ctx, currentUserID, req)
}

func (s *Service) AddProduct(
	ctx context.Context,
	userID, productID int64,
) (UserResponse, error) {
	ctx, span := core.StartSpan(ctx, "user.add_product",
		attribute.Int64("user.id", userID),
		attribute.Int64("product.id", productID),
	)
	defer span.End()

	user, p, err := s.resolvePair(ctx, userID, productID)
	if err != nil {
		return UserResponse{}, err
	}

	owned, err := s.repo.HasProduct(ctx, userID, productID)
	if err != nil {
		return UserResponse{}, err
	}
	if owned {
		slog.WarnContext(ctx, "user already has product",
			"user_id", userID,
			"product_id", productID,
		)
		return UserResponse{}, alreadyHas(user, p)
	}

	if err := s.repo.AddProduct(ctx, userID, productID); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return UserResponse{}, alreadyHas(user, p)
		case errors.Is(err, core.ErrNotFound):
			return UserResponse{}, core.NotFoundError("User", "id", userID)
		}
		return UserResponse{}, err
	}

	s.invalidate(ctx, userID, true)

	events.PublishSafe(ctx, s.publisher, events.New(
		events.UserProductAdded,
		events.EntityUser,
		userID,
		map[string]any{"product_id": productID},
	))

	slog.InfoContext(ctx, "product added to user",
		"user_id", userID,
		"product_id", productID,
	)

	return s.toResponse(ctx, user)
}

func (s *Service) RemoveProduct(
	ctx context.Context,
	userID, productID int64,
) (UserResponse, error) {
	ctx, span := core.StartSpan(ctx, "user.remove_product",
		attribute.Int64("user.id", userID),
		attribute.Int64("product.id", productID),
	)
	defer span.End()

	user, p, err := s.resolvePair(ctx, userID, productID)
	if err != nil {
		return UserResponse{}, err
	}

	owned, err := s.repo.HasProduct(ctx, userID, productID)
	if err != nil {
		return UserResponse{}, err
	}
	if !owned {
		slog.WarnContext(ctx, "user does not have product",
			"user_id", userID,
			"product_id", productID,
		)
		return UserResponse{}, doesNotHave(user, p)
	}

	if err := s.repo.RemoveProduct(ctx, userID, productID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return UserResponse{}, doesNotHave(user, p)
		}
		return UserResponse{}, err
	}

	s.invalidate(ctx, userID, true)

	events.PublishSafe(ctx, s.publisher, events.New(
		events.UserProductRemoved,
		events.EntityUser,
		userID,
		map[string]any{"product_id": productID},
	))

	slog.InfoContext(ctx, "product removed from user",
		"user_id", userID,
		"product_id", productID,
	)

	return s.toResponse(ctx, user)
}

func (s *Service) PromoteToAdmin(ctx context.Context, id int64) (UserResponse, error) {
	ctx, span := core.StartSpan(ctx, "user.promote", attribute.Int64("user.id", id))
	defer span.End()

	user, err := s.getByID(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	if user.IsAdmin() {
		slog.WarnContext(ctx, "user is already admin", "user_id", id)
		return UserResponse{}, core.ConflictError("User is already ADMIN")
	}

	if err := s.repo.AddRole(ctx, id, core.RoleAdmin); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return UserResponse{}, core.NotFoundError("User", "id", id)
		}
		return UserResponse{}, err
	}
	user.Roles = user.Roles.With(core.RoleAdmin)

	s.invalidate(ctx, id, false)

	events.PublishSafe(ctx, s.publisher, events.New(
		events.UserPromoted,
		events.EntityUser,
		id,
		map[string]any{"roles": user.Roles},
	))

	slog.InfoContext(ctx, "user promoted to admin", "user_id", id)

	return s.toResponse(ctx, user)
}

func (s *Service) RemoveFromAdmin(ctx context.Context, id int64) (UserResponse, error) {
	ctx, span := core.StartSpan(ctx, "user.demote", attribute.Int64("user.id", id))
	defer span.End()

	user, err := s.getByID(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	if !user.IsAdmin() {
		slog.WarnContext(ctx, "user is not admin", "user_id", id)
		return UserResponse{}, core.ConflictError("User is not ADMIN")
	}

	if err := s.repo.RemoveRole(ctx, id, core.RoleAdmin); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return UserResponse{}, core.ConflictError("User is not ADMIN")
		}
		return UserResponse{}, err
	}
	user.Roles = user.Roles.Without(core.RoleAdmin)

	s.invalidate(ctx, id, false)

	events.PublishSafe(ctx, s.publisher, events.New(
		events.UserDemoted,
		events.EntityUser,
		id,
		map[string]any{"roles": user.Roles},
	))

	slog.InfoContext(ctx, "user removed from admin", "user_id", id)

	return s.toResponse(ctx, user)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := core.StartSpan(ctx, "user.delete", attribute.Int64("user.id", id))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "user not found", "user_id", id)
			return core.NotFoundError("User", "id", id)
		}
		return err
	}

	s.invalidate(ctx, id, true)

	events.PublishSafe(ctx, s.publisher, events.New(
		events.UserDeleted,
		events.EntityUser,
		id,
		nil,
	))

	slog.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

func (s *Service) DeleteMe(ctx context.Context, currentUserID int64) error {
	return s.DeleteUser(ctx, currentUserID)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) CountAdmins(ctx context.Context) (int, error) {
	return s.repo.CountByRole(ctx, core.RoleAdmin)
}

func (s *Service) getByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "user not found", "user_id", id)
			return nil, core.NotFoundError("User", "id", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) resolvePair(
	ctx context.Context,
	userID, productID int64,
) (*User, *product.Product, error) {
	user, err := s.getByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) && !core.IsAppError(err) {
			return nil, nil, core.NotFoundError("Product", "id", productID)
		}
		return nil, nil, err
	}

	return user, p, nil
}

// invalidate drops the user caches. withProducts also clears the product
// caches, whose responses embed usernames.
func (s *Service) invalidate(ctx context.Context, id int64, withProducts bool) {
	names := []string{cache.AllUsers, cache.UsersPage}
	if withProducts {
		names = append(names, cache.ProductCaches...)
	}

	cache.Invalidation{
		Evict: map[string][]string{cache.User: {strconv.FormatInt(id, 10)}},
		Clear: names,
	}.Apply(ctx, s.cache)
}

func (s *Service) toResponse(ctx context.Context, user *User) (UserResponse, error) {
	products, err := s.repo.ProductsFor(ctx, []int64{user.ID})
	if err != nil {
		return UserResponse{}, err
	}
	return ToUserResponse(user, products[user.ID]), nil
}

func (s *Service) withProducts(ctx context.Context, users []User) ([]UserResponse, error) {
	ids := make([]int64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}

	products, err := s.repo.ProductsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	return ToUserResponseList(users, products), nil
}

func alreadyHas(u *User, p *product.Product) *core.AppError {
	return core.ConflictError(fmt.Sprintf("%s already has %s", u.Username, p.Name))
}

func doesNotHave(u *User, p *product.Product) *core.AppError {
	return core.ConflictError(fmt.Sprintf("%s does not have %s", u.Username, p.Name))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
