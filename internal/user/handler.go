// AngelaMos | 2026
// handler.go

package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, userOnly, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Group(func(r chi.Router) {
			r.Use(userOnly)

			r.Get("/me", h.GetMe)
			r.Put("/update/me", h.UpdateMe)
			r.Delete("/me", h.DeleteMe)
			r.Post("/{userID}/add_product/{productID}", h.AddProduct)
			r.Delete("/{userID}/remove_product/{productID}", h.RemoveProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/", h.ListUsers)
			r.Get("/all", h.ListAllUsers)
			r.Get("/id/{id}", h.GetUser)
			r.Put("/{id}/update", h.UpdateUser)
			r.Delete("/id/{id}", h.DeleteUser)
			r.Post("/{id}/promote_to_admin", h.PromoteToAdmin)
			r.Delete("/{id}/remove_from_admin", h.RemoveFromAdmin)
		})
	})
}

func (h *Handler) ListAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAllUsers(r.Context())
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, users)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	req := core.PageRequestFromQuery(r, DefaultPageSize)

	page, err := h.service.ListUsers(r.Context(), req)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, page)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, req)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.UpdateMe(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMe(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) PromoteToAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	user, err := h.service.PromoteToAdmin(r.Context(), id)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) RemoveFromAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	user, err := h.service.RemoveFromAdmin(r.Context(), id)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := h.associationParams(w, r)
	if !ok {
		return
	}

	user, err := h.service.AddProduct(r.Context(), userID, productID)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	userID, productID, ok := h.associationParams(w, r)
	if !ok {
		return
	}

	user, err := h.service.RemoveProduct(r.Context(), userID, productID)
	if err != nil {
		core.JSONError(w, r, err)
		return
	}

	core.OK(w, user)
}

// associationParams parses both ids and allows only the user themself or
// an admin to change the association.
func (h *Handler) associationParams(
	w http.ResponseWriter,
	r *http.Request,
) (int64, int64, bool) {
	userID, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.JSONError(w, r, err)
		return 0, 0, false
	}

	productID, err := core.ParseID(chi.URLParam(r, "productID"))
	if err != nil {
		core.JSONError(w, r, err)
		return 0, 0, false
	}

	if middleware.GetUserID(r.Context()) != userID && !middleware.IsAdmin(r.Context()) {
		core.Forbidden(w, r, "cannot change another user's products")
		return 0, 0, false
	}

	return userID, productID, true
}
