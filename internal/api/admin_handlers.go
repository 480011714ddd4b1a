package api

import (
	"net/http"

	"github.com/shop-admin/internal/model"
)

const recentLimit = 5

// GetDashboard godoc
// @Summary Admin dashboard
// @Description Aggregate user/product counts and the most recent records
// @Tags Admin
// @Produce json
// @Success 200 {object} model.DashboardResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	products, err := h.products.List(r.Context(), nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	stats := model.DashboardStats{
		TotalUsers:    len(users),
		TotalProducts: len(products),
	}
	for _, user := range users {
		if user.Role == model.UserRoleAdmin {
			stats.TotalAdmins++
		} else {
			stats.TotalRegularUsers++
		}
	}

	respondJSON(w, http.StatusOK, model.DashboardResponse{
		Stats:          stats,
		RecentUsers:    firstN(users, recentLimit),
		RecentProducts: firstN(products, recentLimit),
	})
}

// GetAllUsers godoc
// @Summary List all users
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string][]model.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string][]*model.User{"users": users})
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
