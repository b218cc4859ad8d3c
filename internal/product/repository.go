// AngelaMos | 2026
// repository.go

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByName(ctx context.Context, name string) (*Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	List(ctx context.Context, req core.PageRequest) ([]Product, int, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByNameExcludingID(ctx context.Context, name string, id int64) (bool, error)
	UsersFor(ctx context.Context, productIDs []int64) (map[int64][]UserSummary, error)
	Count(ctx context.Context) (int, error)
}

var sortColumns = map[string]string{
	"id":    "id",
	"name":  "name",
	"price": "price",
}

const productColumns = `id, name, price, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (name, price)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, product.Name, product.Price).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create product: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product Product
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &product, nil
}

// GetByName matches case-insensitively, like the uniqueness rule on names.
func (r *repository) GetByName(
	ctx context.Context,
	name string,
) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE LOWER(name) = LOWER($1)`

	var product Product
	err := r.db.GetContext(ctx, &product, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product by name: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product by name: %w", err)
	}

	return &product, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}

	return products, nil
}

func (r *repository) List(
	ctx context.Context,
	req core.PageRequest,
) ([]Product, int, error) {
	orderBy, err := req.OrderBy(sortColumns)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		ORDER BY %s
		LIMIT $1 OFFSET $2`,
		productColumns, orderBy)

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query, req.Size, req.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func (r *repository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET name = $2, price = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &product.UpdatedAt, query,
		product.ID,
		product.Name,
		product.Price,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update product: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	return core.ExpectAffected(result, "delete product")
}

func (r *repository) ExistsByName(
	ctx context.Context,
	name string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE LOWER(name) = LOWER($1))`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("check product name exists: %w", err)
	}

	return exists, nil
}

func (r *repository) ExistsByNameExcludingID(
	ctx context.Context,
	name string,
	id int64,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM products WHERE LOWER(name) = LOWER($1) AND id <> $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, id); err != nil {
		return false, fmt.Errorf("check product name exists: %w", err)
	}

	return exists, nil
}

type productUser struct {
	ProductID int64 `db:"product_id"`
	UserSummary
}

// UsersFor loads the users associated with each product in one query.
func (r *repository) UsersFor(
	ctx context.Context,
	productIDs []int64,
) (map[int64][]UserSummary, error) {
	result := make(map[int64][]UserSummary, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT up.product_id, u.id, u.username
		FROM user_products up
		JOIN users u ON u.id = up.user_id
		WHERE up.product_id IN (?)
		ORDER BY up.product_id, u.id`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("build product users query: %w", err)
	}

	var rows []productUser
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("load product users: %w", err)
	}

	for _, row := range rows {
		result[row.ProductID] = append(result[row.ProductID], row.UserSummary)
	}

	return result, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}
