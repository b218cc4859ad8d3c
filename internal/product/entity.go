// AngelaMos | 2026
// entity.go

package product

import (
	"time"
)

type Product struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UserSummary is the owning side of the association as seen from a product.
type UserSummary struct {
	ID       int64  `db:"id"       json:"id"`
	Username string `db:"username" json:"username"`
}
