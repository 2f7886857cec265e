package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type AdminService interface {
	Login(ctx context.Context, s *session.Session, email, password string) (*domain.AdminUser, error)
	Logout(ctx context.Context, s *session.Session) (string, error)
	Dashboard(ctx context.Context, s *session.Session) (*admin.Dashboard, error)
	CreateProduct(ctx context.Context, s *session.Session, form admin.ProductForm) (domain.Product, error)
	UpdateProduct(ctx context.Context, s *session.Session, id domain.ProductID, form admin.ProductForm) (domain.Product, error)
	DeleteProduct(ctx context.Context, s *session.Session, id domain.ProductID) error
}

type AdminHandler struct {
	admins       AdminService
	cookies      *session.CookieManager
	maxImageSize int64
	timeout      time.Duration
}

func NewAdminHandler(admins AdminService, cookies *session.CookieManager, maxImageSize int64, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		admins:       admins,
		cookies:      cookies,
		maxImageSize: maxImageSize,
		timeout:      timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponseDTO struct {
	User   *domain.AdminUser `json:"user"`
	Notice *Notice           `json:"notice,omitempty"`
}

type MessageResponseDTO struct {
	Message string  `json:"message,omitempty"`
	Notice  *Notice `json:"notice,omitempty"`
}

type ProductResponseDTO struct {
	Product domain.Product `json:"product"`
	Notice  *Notice        `json:"notice,omitempty"`
}

// POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	var req LoginRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.admins.Login(ctx, sess, req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.cookies.SetAdmin(w, r, user.Email); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &LoginResponseDTO{
		User:   user,
		Notice: newNotice("Login successful"),
	})
}

// POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	// The admin flag goes regardless of what the upstream says.
	if err := h.cookies.ClearAdmin(w, r); err != nil {
		handleError(w, r, err)
		return
	}

	msg, err := h.admins.Logout(ctx, sess)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("upstream logout failed")
	}

	respondJSON(w, http.StatusOK, &MessageResponseDTO{
		Message: msg,
		Notice:  newNotice("Logged out"),
	})
}

// GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	d, err := h.admins.Dashboard(ctx, sess)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	form, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}

	product, err := h.admins.CreateProduct(ctx, sess, form)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, &ProductResponseDTO{
		Product: product,
		Notice:  newNotice("Product added successfully"),
	})
}

// PUT /api/v1/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	id := domain.ProductID(chi.URLParam(r, "id"))
	form, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}

	product, err := h.admins.UpdateProduct(ctx, sess, id, form)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &ProductResponseDTO{
		Product: product,
		Notice:  newNotice("Product updated successfully"),
	})
}

// DELETE /api/v1/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusInternalServerError, "session_error", "missing session")
		return
	}

	id := domain.ProductID(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id is required")
		return
	}

	if err := h.admins.DeleteProduct(ctx, sess, id); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &MessageResponseDTO{
		Notice: newNotice("Product deleted successfully"),
	})
}

// parseProductForm reads name, price and the optional image from a
// multipart body. It writes the error response itself when it fails.
func (h *AdminHandler) parseProductForm(w http.ResponseWriter, r *http.Request) (admin.ProductForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+multipartSlack)
	if err := r.ParseMultipartForm(h.maxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "image_too_large", "image is too large")
			return admin.ProductForm{}, false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form")
		return admin.ProductForm{}, false
	}
	defer r.MultipartForm.RemoveAll()

	form := admin.ProductForm{
		Name:  r.FormValue("name"),
		Price: r.FormValue("price"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, true
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read image")
		return admin.ProductForm{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read image")
		return admin.ProductForm{}, false
	}
	form.Image = &api.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return form, true
}
