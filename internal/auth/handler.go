package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/kleverbot/kleverbot-api/internal/utils"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Handler exposes the /auth endpoints.
type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func requestMeta(r *http.Request) SessionMeta {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	} else if i := strings.IndexByte(ip, ','); i > 0 {
		ip = ip[:i]
	}
	return SessionMeta{UserAgent: r.UserAgent(), IP: ip}
}

func validateRegister(req *RegisterRequest) []utils.FieldError {
	var errs []utils.FieldError
	if strings.TrimSpace(req.Username) == "" {
		errs = append(errs, utils.FieldError{Field: "username", Message: "username is required"})
	}
	if !emailPattern.MatchString(req.Email) {
		errs = append(errs, utils.FieldError{Field: "email", Message: "valid email is required"})
	}
	if len(req.Password) < 8 {
		errs = append(errs, utils.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	return errs
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if errs := validateRegister(&req); len(errs) > 0 {
		utils.RespondValidationError(w, errs)
		return
	}

	result, err := h.Service.Register(req, requestMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			utils.RespondError(w, http.StatusBadRequest, "Email already registered")
		case errors.Is(err, ErrUsernameExists):
			utils.RespondError(w, http.StatusBadRequest, "Username already taken")
		default:
			log.Printf("register error: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, "Registration successful", result)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account    string `json:"account"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Account == "" || req.Password == "" {
		utils.RespondValidationError(w, []utils.FieldError{
			{Field: "account", Message: "account and password are required"},
		})
		return
	}

	result, err := h.Service.Login(req.Account, req.Password, req.RememberMe, requestMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			utils.RespondError(w, http.StatusUnauthorized, "Invalid username/email/phone or password")
		case errors.Is(err, ErrAccountInactive):
			utils.RespondError(w, http.StatusForbidden, "Account is not active")
		default:
			log.Printf("login error: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Login successful", result)
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		utils.RespondError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	pair, err := h.Service.RefreshAccessToken(req.RefreshToken, requestMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrUserNotFound):
			// UserNotFound maps to 401 here to avoid leaking account existence.
			utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		default:
			log.Printf("refresh error: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Token refresh failed")
		}
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Token refreshed successfully", pair)
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		utils.RespondError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	if err := h.Service.Logout(req.RefreshToken); err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken),
			errors.Is(err, ErrTokenNotFound),
			errors.Is(err, ErrTokenAlreadyRevoked),
			errors.Is(err, ErrTokenExpired):
			utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
		default:
			log.Printf("logout error: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Logout failed")
		}
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Logout successful", nil)
}

// LogoutAll handles POST /auth/logout-all.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := h.Service.LogoutAll(u.ID); err != nil {
		log.Printf("logout-all error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Logged out from all devices", nil)
}

// Profile handles GET /auth/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	current, err := h.Service.GetCurrentUser(u.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("profile error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to get user information")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "User retrieved successfully", current)
}

// Sessions handles GET /auth/sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	sessions, err := h.Service.Sessions(u.ID)
	if err != nil {
		log.Printf("sessions error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Active sessions", sessions)
}
