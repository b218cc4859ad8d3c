// AngelaMos | 2026
// dto.go

package product

type CreateProductRequest struct {
	Name  string   `json:"name"  validate:"required,min=3,max=50"`
	Price *float64 `json:"price" validate:"required,gte=0"`
}

// UpdateProductRequest is a partial update. Absent or empty fields are left
// unchanged.
type UpdateProductRequest struct {
	Name  string   `json:"name,omitempty"  validate:"omitempty,min=3,max=50"`
	Price *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type ProductResponse struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Price float64       `json:"price"`
	Users []UserSummary `json:"users"`
}

func ToProductResponse(p *Product, users []UserSummary) ProductResponse {
	if users == nil {
		users = []UserSummary{}
	}

	return ProductResponse{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Users: users,
	}
}

func ToProductResponseList(
	products []Product,
	users map[int64][]UserSummary,
) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(
			responses,
			ToProductResponse(&products[i], users[products[i].ID]),
		)
	}
	return responses
}
