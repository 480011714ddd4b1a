package api

import (
	"net/http"

	"github.com/shop-admin/internal/middleware"
	"github.com/shop-admin/internal/model"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates a new HTTP router with all routes
func NewRouter(h *Handler, auth *middleware.AuthMiddleware, uploadsDir string) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	adminOnly := func(next http.HandlerFunc) http.Handler {
		return auth.Authenticate(auth.RequireRole(model.UserRoleAdmin)(next))
	}

	// Public routes
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /health", h.Health)

	mux.Handle("GET /auth/profile", auth.Authenticate(http.HandlerFunc(h.GetProfile)))

	// Admin routes
	mux.Handle("GET /admin/dashboard", adminOnly(h.GetDashboard))
	mux.Handle("GET /admin/users", adminOnly(h.GetAllUsers))

	// Product routes; reads are public, writes are admin only
	mux.HandleFunc("GET /products", h.GetProducts)
	mux.HandleFunc("GET /products/categories", h.GetCategories)
	mux.HandleFunc("GET /products/{id}", h.GetProduct)
	mux.Handle("POST /products", adminOnly(h.CreateProduct))
	mux.Handle("PUT /products/{id}", adminOnly(h.UpdateProduct))
	mux.Handle("DELETE /products/{id}", adminOnly(h.DeleteProduct))
	mux.Handle("DELETE /products/{id}/images/{imageIndex}", adminOnly(h.DeleteProductImage))

	// Stored product images are served as-is
	mux.Handle("GET /uploads/products/", http.StripPrefix("/uploads/products/",
		http.FileServer(http.Dir(uploadsDir))))

	// Apply global middleware
	return middleware.CORS(middleware.Logger(mux))
}
