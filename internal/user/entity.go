// AngelaMos | 2026
// entity.go

package user

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/carterperez-dev/storefront/internal/core"
)

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Roles        RoleSet   `db:"roles"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Roles.Has(core.RoleAdmin)
}

// RoleSet is a sorted, duplicate free list of role names. It scans from the
// comma separated aggregate produced by the repository queries.
type RoleSet []string

func NewRoleSet(roles ...string) RoleSet {
	rs := RoleSet{}
	for _, r := range roles {
		rs = rs.With(r)
	}
	return rs
}

func (rs RoleSet) Has(role string) bool {
	return slices.Contains(rs, role)
}

func (rs RoleSet) With(role string) RoleSet {
	if role == "" || rs.Has(role) {
		return rs
	}
	out := append(slices.Clone(rs), role)
	sort.Strings(out)
	return out
}

func (rs RoleSet) Without(role string) RoleSet {
	out := make(RoleSet, 0, len(rs))
	for _, r := range rs {
		if r != role {
			out = append(out, r)
		}
	}
	return out
}

func (rs *RoleSet) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*rs = RoleSet{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan roles: unsupported type %T", src)
	}

	set := RoleSet{}
	for _, part := range strings.Split(raw, ",") {
		set = set.With(strings.TrimSpace(part))
	}
	*rs = set
	return nil
}

func (rs RoleSet) Value() (driver.Value, error) {
	return strings.Join(rs, ","), nil
}
