// AngelaMos | 2026
// service_test.go

package product

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/cache"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/events"
)

type memRepo struct {
	products map[int64]*Product
	users    map[int64][]UserSummary
	nextID   int64
	updates  int
}

func newMemRepo(seed ...Product) *memRepo {
	r := &memRepo{
		products: make(map[int64]*Product),
		users:    make(map[int64][]UserSummary),
	}
	for i := range seed {
		p := seed[i]
		r.products[p.ID] = &p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *memRepo) Create(_ context.Context, p *Product) error {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) GetByName(_ context.Context, name string) (*Product, error) {
	for _, p := range r.products {
		if strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *memRepo) ListAll(context.Context) ([]Product, error) {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) List(ctx context.Context, req core.PageRequest) ([]Product, int, error) {
	if _, err := req.OrderBy(sortColumns); err != nil {
		return nil, 0, err
	}
	all, _ := r.ListAll(ctx)
	start := min(req.Offset(), len(all))
	end := min(start+req.Size, len(all))
	return all[start:end], len(all), nil
}

func (r *memRepo) Update(_ context.Context, p *Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return core.ErrNotFound
	}
	r.updates++
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	return r.ExistsByNameExcludingID(context.Background(), name, 0)
}

func (r *memRepo) ExistsByNameExcludingID(_ context.Context, name string, id int64) (bool, error) {
	for _, p := range r.products {
		if p.ID != id && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) UsersFor(_ context.Context, ids []int64) (map[int64][]UserSummary, error) {
	out := make(map[int64][]UserSummary)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *memRepo) Count(context.Context) (int, error) {
	return len(r.products), nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.Event) error {
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func price(v float64) *float64 { return &v }

func newTestService(repo *memRepo) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewService(repo, cache.Nop{}, pub), pub
}

func TestCreateProduct(t *testing.T) {
	svc, pub := newTestService(newMemRepo())

	resp, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:  "  Green Tea ",
		Price: price(3.5),
	})
	require.NoError(t, err)

	assert.Equal(t, "Green Tea", resp.Name)
	assert.Equal(t, 3.5, resp.Price)
	assert.NotNil(t, resp.Users)
	assert.Equal(t, []string{events.ProductCreated}, pub.types())
}

func TestCreateProductDuplicateNameConflicts(t *testing.T) {
	svc, pub := newTestService(newMemRepo(Product{ID: 1, Name: "Tea", Price: 1}))

	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:  "tea",
		Price: price(2),
	})

	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Empty(t, pub.events)
}

func TestGetProductNotFound(t *testing.T) {
	svc, _ := newTestService(newMemRepo())

	_, err := svc.GetProduct(context.Background(), 99)
	require.ErrorIs(t, err, core.ErrNotFound)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Product with id '99' not found", appErr.Message)
}

func TestGetProductByNameIncludesUsers(t *testing.T) {
	repo := newMemRepo(Product{ID: 1, Name: "Tea", Price: 1})
	repo.users[1] = []UserSummary{{ID: 5, Username: "ann"}}
	svc, _ := newTestService(repo)

	resp, err := svc.GetProductByName(context.Background(), "Tea")
	require.NoError(t, err)
	assert.Equal(t, []UserSummary{{ID: 5, Username: "ann"}}, resp.Users)

	_, err = svc.GetProductByName(context.Background(), "Coffee")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetProductByNameIgnoresCase(t *testing.T) {
	repo := newMemRepo(Product{ID: 1, Name: "Tea", Price: 1})
	svc, _ := newTestService(repo)

	for _, name := range []string{"tea", "TEA", "Tea"} {
		resp, err := svc.GetProductByName(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, "Tea", resp.Name)
	}

	price := 2.0
	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{Name: "tea", Price: &price})
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestUpdateProductPartialSemantics(t *testing.T) {
	tests := []struct {
		name        string
		req         UpdateProductRequest
		wantName    string
		wantPrice   float64
		wantUpdates int
		wantErr     error
	}{
		{
			name:      "empty request changes nothing",
			req:       UpdateProductRequest{},
			wantName:  "Tea",
			wantPrice: 1,
		},
		{
			name:      "same name ignoring case is skipped",
			req:       UpdateProductRequest{Name: "TEA"},
			wantName:  "Tea",
			wantPrice: 1,
		},
		{
			name:        "new name applied",
			req:         UpdateProductRequest{Name: "Black Tea"},
			wantName:    "Black Tea",
			wantPrice:   1,
			wantUpdates: 1,
		},
		{
			name:        "price applied",
			req:         UpdateProductRequest{Price: price(0)},
			wantName:    "Tea",
			wantPrice:   0,
			wantUpdates: 1,
		},
		{
			name:      "same price skipped",
			req:       UpdateProductRequest{Price: price(1)},
			wantName:  "Tea",
			wantPrice: 1,
		},
		{
			name:    "name taken by another product",
			req:     UpdateProductRequest{Name: "coffee"},
			wantErr: core.ErrConflict,
		},
		{
			name:    "negative price",
			req:     UpdateProductRequest{Price: price(-1)},
			wantErr: core.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo(
				Product{ID: 1, Name: "Tea", Price: 1},
				Product{ID: 2, Name: "Coffee", Price: 2},
			)
			svc, pub := newTestService(repo)

			resp, err := svc.UpdateProduct(context.Background(), 1, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, repo.updates)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, resp.Name)
			assert.Equal(t, tt.wantPrice, resp.Price)
			assert.Equal(t, tt.wantUpdates, repo.updates)
			assert.Len(t, pub.events, tt.wantUpdates)
		})
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	svc, _ := newTestService(newMemRepo())

	_, err := svc.UpdateProduct(context.Background(), 4, UpdateProductRequest{Name: "Tea"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	repo := newMemRepo(Product{ID: 1, Name: "Tea", Price: 1})
	svc, pub := newTestService(repo)

	require.NoError(t, svc.DeleteProduct(context.Background(), 1))
	assert.Empty(t, repo.products)
	assert.Equal(t, []string{events.ProductDeleted}, pub.types())

	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), 1), core.ErrNotFound)
}

func TestListProductsPage(t *testing.T) {
	repo := newMemRepo()
	for i := int64(1); i <= 5; i++ {
		repo.products[i] = &Product{ID: i, Name: "P", Price: float64(i)}
	}
	svc, _ := newTestService(repo)

	page, err := svc.ListProducts(context.Background(), core.PageRequest{Page: 1, Size: 0})
	require.NoError(t, err)

	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Equal(t, 5, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 1)
	assert.Equal(t, int64(5), page.Content[0].ID)
	assert.True(t, page.Last)
}

func TestProductMutationsInvalidateCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := cache.NewRedisStore(client, "t", time.Minute)
	repo := newMemRepo(Product{ID: 1, Name: "Tea", Price: 1})
	svc := NewService(repo, store, events.NopPublisher{})
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	_, err = svc.ListAllProducts(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, cache.User, "9", map[string]string{"embeds": "Tea"}))

	assert.True(t, mr.Exists("t:productId:1"))
	assert.True(t, mr.Exists("t:allProducts:all"))

	resp, err := svc.UpdateProduct(ctx, 1, UpdateProductRequest{Price: price(2)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, resp.Price)

	assert.False(t, mr.Exists("t:productId:1"))
	assert.False(t, mr.Exists("t:allProducts:all"))
	assert.False(t, mr.Exists("t:user:9"))

	got, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Price)
}
