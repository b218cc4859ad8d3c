// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListAll(ctx context.Context) ([]User, error)
	List(ctx context.Context, req core.PageRequest) ([]User, int, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailExcludingID(ctx context.Context, email string, id int64) (bool, error)
	AddRole(ctx context.Context, id int64, role string) error
	RemoveRole(ctx context.Context, id int64, role string) error
	HasProduct(ctx context.Context, userID, productID int64) (bool, error)
	AddProduct(ctx context.Context, userID, productID int64) error
	RemoveProduct(ctx context.Context, userID, productID int64) error
	ProductsFor(ctx context.Context, userIDs []int64) (map[int64][]ProductSummary, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

var sortColumns = map[string]string{
	"id":       "u.id",
	"username": "u.username",
	"email":    "u.email",
}

const userSelect = `
	SELECT u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at,
	       COALESCE((
	           SELECT string_agg(r.role, ',' ORDER BY r.role)
	           FROM user_roles r
	           WHERE r.user_id = u.id
	       ), '') AS roles
	FROM users u`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create inserts the user together with its initial roles.
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		WITH inserted AS (
			INSERT INTO users (username, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		), roles AS (
			INSERT INTO user_roles (user_id, role)
			SELECT inserted.id, unnest(string_to_array($4, ','))
			FROM inserted
		)
		SELECT id, created_at, updated_at FROM inserted`

	if len(user.Roles) == 0 {
		user.Roles = NewRoleSet(core.RoleUser)
	}

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Roles,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := userSelect + ` WHERE u.id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := userSelect + ` WHERE u.email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) ListAll(ctx context.Context) ([]User, error) {
	query := userSelect + ` ORDER BY u.id`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list all users: %w", err)
	}

	return users, nil
}

func (r *repository) List(
	ctx context.Context,
	req core.PageRequest,
) ([]User, int, error) {
	orderBy, err := req.OrderBy(sortColumns)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`%s
		ORDER BY %s
		LIMIT $1 OFFSET $2`,
		userSelect, orderBy)

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, req.Size, req.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Username,
		user.Email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return core.ExpectAffected(result, "update password")
}

// Delete removes the user. Roles and product associations cascade.
func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return core.ExpectAffected(result, "delete user")
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) ExistsByEmailExcludingID(
	ctx context.Context,
	email string,
	id int64,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, id); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) AddRole(ctx context.Context, id int64, role string) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, id, role); err != nil {
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("add role: %w", core.ErrNotFound)
		}
		return fmt.Errorf("add role: %w", err)
	}

	return nil
}

func (r *repository) RemoveRole(ctx context.Context, id int64, role string) error {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`

	result, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}

	return core.ExpectAffected(result, "remove role")
}

func (r *repository) HasProduct(
	ctx context.Context,
	userID, productID int64,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_products WHERE user_id = $1 AND product_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, productID); err != nil {
		return false, fmt.Errorf("check user product: %w", err)
	}

	return exists, nil
}

func (r *repository) AddProduct(
	ctx context.Context,
	userID, productID int64,
) error {
	query := `INSERT INTO user_products (user_id, product_id) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		switch {
		case core.IsDuplicateKeyError(err):
			return fmt.Errorf("add product: %w", core.ErrDuplicateKey)
		case core.IsForeignKeyError(err):
			return fmt.Errorf("add product: %w", core.ErrNotFound)
		}
		return fmt.Errorf("add product: %w", err)
	}

	return nil
}

func (r *repository) RemoveProduct(
	ctx context.Context,
	userID, productID int64,
) error {
	query := `DELETE FROM user_products WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("remove product: %w", err)
	}

	return core.ExpectAffected(result, "remove product")
}

type userProduct struct {
	UserID int64 `db:"user_id"`
	ProductSummary
}

// ProductsFor loads the products associated with each user in one query.
func (r *repository) ProductsFor(
	ctx context.Context,
	userIDs []int64,
) (map[int64][]ProductSummary, error) {
	result := make(map[int64][]ProductSummary, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT up.user_id, p.id, p.name, p.price
		FROM user_products up
		JOIN products p ON p.id = up.product_id
		WHERE up.user_id IN (?)
		ORDER BY up.user_id, p.id`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build user products query: %w", err)
	}

	var rows []userProduct
	if err := r.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("load user products: %w", err)
	}

	for _, row := range rows {
		result[row.UserID] = append(result[row.UserID], row.ProductSummary)
	}

	return result, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (r *repository) CountByRole(ctx context.Context, role string) (int, error) {
	query := `SELECT COUNT(*) FROM user_roles WHERE role = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, query, role); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return total, nil
}
