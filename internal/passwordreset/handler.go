package passwordreset

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/kleverbot/kleverbot-api/internal/auth"
	"github.com/kleverbot/kleverbot-api/internal/utils"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

// Request handles POST /auth/password-reset/request.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		utils.RespondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.Service.Request(req.Email); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("password reset request error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Password reset request failed")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Password reset email sent", nil)
}

// Confirm handles POST /auth/password-reset/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		utils.RespondError(w, http.StatusBadRequest, "Token is required")
		return
	}
	if len(req.NewPassword) < 8 {
		utils.RespondValidationError(w, []utils.FieldError{
			{Field: "newPassword", Message: "password must be at least 8 characters"},
		})
		return
	}

	if err := h.Service.Confirm(req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
			utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired reset token")
		default:
			log.Printf("password reset confirm error: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Password reset failed")
		}
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Password updated successfully", nil)
}
