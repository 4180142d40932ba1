package user

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/kleverbot/kleverbot-api/internal/role"
	"github.com/kleverbot/kleverbot-api/internal/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler exposes user management endpoints. Access control happens in the
// router via the auth middleware; handlers assume the gate already ran.
type Handler struct {
	Repository Repository
	Roles      role.Repository
}

func NewHandler(users Repository, roles role.Repository) *Handler {
	return &Handler{Repository: users, Roles: roles}
}

// List handles GET /users (admin).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	filters := ListFilters{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
		Status: q.Get("status"),
		Role:   q.Get("role"),
	}
	users, total, err := h.Repository.List(filters)
	if err != nil {
		log.Printf("list users error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}
	pages := (total + int64(filters.Limit) - 1) / int64(filters.Limit)
	utils.RespondSuccess(w, http.StatusOK, "Users retrieved successfully", PaginatedUsers{
		Users: users,
		Page: Pagination{
			Page:  filters.Page,
			Limit: filters.Limit,
			Total: total,
			Pages: pages,
		},
	})
}

// Get handles GET /users/{id} (admin).
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	u, err := h.Repository.FindByIDWithRoles(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("get user error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	u.Password = ""
	utils.RespondSuccess(w, http.StatusOK, "User retrieved successfully", u)
}

// IdentityFunc resolves the authenticated user id from a request. The
// router injects it so this package stays decoupled from the auth package.
type IdentityFunc func(r *http.Request) (uint, bool)

// UpdateOwnProfile handles PUT /auth/profile for the authenticated user.

func (h *Handler) UpdateOwnProfile(identity IdentityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		h.updateProfile(w, r, id)
	}
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request, userID uint) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	u, err := h.Repository.UpdateProfile(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbiddenField):
			utils.RespondError(w, http.StatusBadRequest, "Email, status and password cannot be changed here")
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.RespondError(w, http.StatusNotFound, "User not found")
		default:
			log.Printf("update profile error: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}
	u.Password = ""
	utils.RespondSuccess(w, http.StatusOK, "Profile updated successfully", u)
}

// UpdateRoles handles PUT /users/{id}/roles (super_admin).
func (h *Handler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req UpdateRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Roles) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "At least one role is required")
		return
	}

	roles, err := h.Roles.FindByNames(req.Roles)
	if err != nil {
		log.Printf("find roles error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to resolve roles")
		return
	}
	if len(roles) != len(req.Roles) {
		utils.RespondError(w, http.StatusBadRequest, "Unknown role in request")
		return
	}

	if err := h.Repository.ReplaceRoles(uint(id), roles); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("replace roles error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to update roles")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Roles updated successfully", nil)
}
