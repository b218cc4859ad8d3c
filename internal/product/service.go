// AngelaMos | 2026
// service.go

package product

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
)

const (
	DefaultPageSize = 4
	allKey          = "all"
)

type Service struct {
	repo      Repository
	cache     cache.Store
	publisher events.Publisher
}

func NewService(
	repo Repository,
	store cache.Store,
	publisher events.Publisher,
) *Service {
	return &Service{
		repo:      repo,
		cache:     store,
		publisher: publisher,
	}
}

func (s *Service) ListAllProducts(ctx context.Context) ([]ProductResponse, error) {
	return cache.Fetch(ctx, s.cache, cache.AllProducts, allKey,
		func(ctx context.Context) ([]ProductResponse, error) {
			products, err := s.repo.ListAll(ctx)
			if err != nil {
				return nil, err
			}
			return s.withUsers(ctx, products)
		})
}

func (s *Service) ListProducts(
	ctx context.Context,
	req core.PageRequest,
) (core.Page[ProductResponse], error) {
	req.Normalize(DefaultPageSize)

	return cache.Fetch(ctx, s.cache, cache.ProductsPage, req.CacheKey(),
		func(ctx context.Context) (core.Page[ProductResponse], error) {
			products, total, err := s.repo.List(ctx, req)
			if err != nil {
				return core.Page[ProductResponse]{}, err
			}

			content, err := s.withUsers(ctx, products)
			if err != nil {
				return core.Page[ProductResponse]{}, err
			}

			return core.NewPage(content, req, total), nil
		})
}

func (s *Service) GetProduct(
	ctx context.Context,
	id int64,
) (ProductResponse, error) {
	return cache.Fetch(ctx, s.cache, cache.ProductID, strconv.FormatInt(id, 10),
		func(ctx context.Context) (ProductResponse, error) {
			product, err := s.getByID(ctx, id)
			if err != nil {
				return ProductResponse{}, err
			}
			return s.toResponse(ctx, product)
		})
}

func (s *Service) GetProductByName(
	ctx context.Context,
	name string,
) (ProductResponse, error) {
	return cache.Fetch(ctx, s.cache, cache.ProductName, strings.ToLower(name),
		func(ctx context.Context) (ProductResponse, error) {
			product, err := s.repo.GetByName(ctx, name)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					slog.WarnContext(ctx, "product not found", "name", name)
					return ProductResponse{}, core.NotFoundError("Product", "name", name)
				}
				return ProductResponse{}, err
			}
			return s.toResponse(ctx, product)
		})
}

func (s *Service) CreateProduct(
	ctx context.Context,
	req CreateProductRequest,
) (ProductResponse, error) {
	ctx, span := core.StartSpan(ctx, "product.create")
	defer span.End()

	name := strings.TrimSpace(req.Name)

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return ProductResponse{}, err
	}
	if exists {
		slog.WarnContext(ctx, "product name already exists", "name", name)
		return ProductResponse{}, nameConflict(name)
	}

	product := &Product{Name: name}
	if req.Price != nil {
		product.Price = *req.Price
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return ProductResponse{}, nameConflict(name)
		}
		return ProductResponse{}, err
	}

	cache.Invalidation{
		Clear: []string{cache.AllProducts, cache.ProductsPage},
	}.Apply(ctx, s.cache)

	events.PublishSafe(ctx, s.publisher, events.New(
		events.ProductCreated,
		events.EntityProduct,
		product.ID,
		productPayload(product),
	))

	core.AddSpanEvent(ctx, "product.created", attribute.Int64("product.id", product.ID))
	slog.InfoContext(ctx, "product created", "product_id", product.ID, "name", product.Name)

	return ToProductResponse(product, nil), nil
}

// UpdateProduct applies the name when it is non-empty and differs ignoring
// case, and the price when it is present and differs.
func (s *Service) UpdateProduct(
	ctx context.Context,
	id int64,
	req UpdateProductRequest,
) (ProductResponse, error) {
	ctx, span := core.StartSpan(ctx, "product.update")
	defer span.End()

	product, err := s.getByID(ctx, id)
	if err != nil {
		return ProductResponse{}, err
	}

	changed := false

	name := strings.TrimSpace(req.Name)
	if name != "" && !strings.EqualFold(name, product.Name) {
		exists, err := s.repo.ExistsByNameExcludingID(ctx, name, id)
		if err != nil {
			return ProductResponse{}, err
		}
		if exists {
			slog.WarnContext(ctx, "product name already exists", "name", name)
			return ProductResponse{}, nameConflict(name)
		}
		product.Name = name
		changed = true
	}

	if req.Price != nil && *req.Price != product.Price {
		if *req.Price < 0 {
			return ProductResponse{}, core.BadRequestError("price must be greater than or equal to 0")
		}
		product.Price = *req.Price
		changed = true
	}

	if changed {
		if err := s.repo.Update(ctx, product); err != nil {
			switch {
			case errors.Is(err, core.ErrDuplicateKey):
				return ProductResponse{}, nameConflict(product.Name)
			case errors.Is(err, core.ErrNotFound):
				return ProductResponse{}, core.NotFoundError("Product", "id", id)
			}
			return ProductResponse{}, err
		}

		s.invalidate(ctx, id)

		events.PublishSafe(ctx, s.publisher, events.New(
			events.ProductUpdated,
			events.EntityProduct,
			product.ID,
			productPayload(product),
		))

		slog.InfoContext(ctx, "product updated", "product_id", id)
	}

	return s.toResponse(ctx, product)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := core.StartSpan(ctx, "product.delete")
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "product not found", "product_id", id)
			return core.NotFoundError("Product", "id", id)
		}
		return err
	}

	s.invalidate(ctx, id)

	events.PublishSafe(ctx, s.publisher, events.New(
		events.ProductDeleted,
		events.EntityProduct,
		id,
		nil,
	))

	slog.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

// GetByID returns the stored product, for callers that manage associations.
func (s *Service) GetByID(ctx context.Context, id int64) (*Product, error) {
	return s.getByID(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) getByID(ctx context.Context, id int64) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "product not found", "product_id", id)
			return nil, core.NotFoundError("Product", "id", id)
		}
		return nil, err
	}
	return product, nil
}

// invalidate drops every cache that can hold the product, including user
// responses that embed it.
func (s *Service) invalidate(ctx context.Context, id int64) {
	names := []string{cache.ProductName, cache.AllProducts, cache.ProductsPage}
	names = append(names, cache.UserCaches...)

	cache.Invalidation{
		Evict: map[string][]string{cache.ProductID: {strconv.FormatInt(id, 10)}},
		Clear: names,
	}.Apply(ctx, s.cache)
}

func (s *Service) toResponse(
	ctx context.Context,
	product *Product,
) (ProductResponse, error) {
	users, err := s.repo.UsersFor(ctx, []int64{product.ID})
	if err != nil {
		return ProductResponse{}, err
	}
	return ToProductResponse(product, users[product.ID]), nil
}

func (s *Service) withUsers(
	ctx context.Context,
	products []Product,
) ([]ProductResponse, error) {
	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	users, err := s.repo.UsersFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	return ToProductResponseList(products, users), nil
}

func nameConflict(name string) *core.AppError {
	return core.ConflictError(fmt.Sprintf("product with name '%s' already exists", name))
}

func productPayload(p *Product) map[string]any {
	return map[string]any{
		"name":  p.Name,
		"price": p.Price,
	}
}
