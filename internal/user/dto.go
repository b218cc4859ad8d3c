// AngelaMos | 2026
// dto.go

package user

// UpdateUserRequest is a partial update. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=20"`
	Email    string `json:"email,omitempty"    validate:"omitempty,email,max=255"`
}

// ProductSummary is a product as embedded in a user response.
type ProductSummary struct {
	ID    int64   `db:"id"    json:"id"`
	Name  string  `db:"name"  json:"name"`
	Price float64 `db:"price" json:"price"`
}

type UserResponse struct {
	ID       int64            `json:"id"`
	Username string           `json:"username"`
	Email    string           `json:"email"`
	Roles    []string         `json:"roles"`
	Products []ProductSummary `json:"products"`
}

func ToUserResponse(u *User, products []ProductSummary) UserResponse {
	if products == nil {
		products = []ProductSummary{}
	}

	roles := []string(u.Roles)
	if roles == nil {
		roles = []string{}
	}

	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    roles,
		Products: products,
	}
}

func ToUserResponseList(
	users []User,
	products map[int64][]ProductSummary,
) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(
			responses,
			ToUserResponse(&users[i], products[users[i].ID]),
		)
	}
	return responses
}
