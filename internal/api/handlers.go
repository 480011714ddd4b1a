package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shop-admin/internal/middleware"
	"github.com/shop-admin/internal/model"
	"github.com/shop-admin/internal/upload"
)

// UserStore is the user persistence surface handlers depend on.
type UserStore interface {
	Create(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	ValidatePassword(user *model.User, password string) bool
}

// ProductStore is the product persistence surface handlers depend on.
type ProductStore interface {
	Create(ctx context.Context, data *model.ProductData) (*model.Product, error)
	List(ctx context.Context, filter *model.ProductFilter) ([]*model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, id string, data *model.ProductData) (*model.Product, error)
	Delete(ctx context.Context, id string) (*model.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Handler contains all API handlers
type Handler struct {
	users    UserStore
	products ProductStore
	uploads  *upload.Store
	auth     *middleware.AuthMiddleware
}

// NewHandler creates a new API handler
func NewHandler(users UserStore, products ProductStore, uploads *upload.Store, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		users:    users,
		products: products,
		uploads:  uploads,
		auth:     auth,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// Auth handlers

// Register godoc
// @Summary Register a new user
// @Description Create a new user account and return a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration details"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request or email taken"
// @Failure 500 {object} map[string]string "Server error"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Username) < 3 {
		respondError(w, http.StatusBadRequest, "Username must be at least 3 characters long")
		return
	}
	if !isValidEmail(req.Email) {
		respondError(w, http.StatusBadRequest, "Please provide a valid email")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	existing, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing != nil {
		respondError(w, http.StatusBadRequest, "User already exists")
		return
	}

	user, err := h.users.Create(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusCreated, model.AuthResponse{
		Message: "User created successfully",
		Token:   token,
		User:    user,
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login credentials"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Server error"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidEmail(req.Email) || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	// Same response for unknown email and wrong password.
	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !h.users.ValidatePassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, model.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

// GetProfile godoc
// @Summary Get user profile
// @Description Get the current user's profile information
// @Tags Authentication
// @Produce json
// @Success 200 {object} map[string]model.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /auth/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondJSON(w, http.StatusOK, map[string]*model.User{"user": user})
}

// Health godoc
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isValidEmail(email string) bool {
	// Basic email validation: contains @ and has text on both sides
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return false
	}
	// Check domain has at least one dot
	if !strings.Contains(parts[1], ".") {
		return false
	}
	return true
}
