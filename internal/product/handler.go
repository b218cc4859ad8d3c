// AngelaMos | 2026
// handler.go

package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the catalog. Reads need the USER role, writes need
// ADMIN.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, userOnly, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/products", func(r chi.Router) {
		r.Use(authenticator)

		r.Group(func(r chi.Router) {
			r.Use(userOnly)

			r.Get("/", h.ListProducts)
			r.Get("/all", h.ListAllProducts)
			r.Get("/id/{id}", h.GetProduct)
			r.Get("/name/{name}", h.GetProductByName)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Post("/", h.CreateProduct)
			r.Put("/{id}/update", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})
}

func (h *Handler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAllProducts(r.Context())
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, products)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	req := core.PageRequestFromQuery(r, DefaultPageSize)

	page, err := h.service.ListProducts(r.Context(), req)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, page)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, product)
}

func (h *Handler) GetProductByName(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProductByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, product)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.Created(w, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	var req UpdateProductRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.NoContent(w)
}
