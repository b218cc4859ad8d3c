// AngelaMos | 2026
// roles.go

package core

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
