package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kleverbot/kleverbot-api/internal/role"
	"github.com/kleverbot/kleverbot-api/internal/user"
	"github.com/kleverbot/kleverbot-api/internal/utils"
	"gorm.io/gorm"
)

// Service coordinates registration, login, refresh and logout. All
// collaborators are injected so tests can substitute fakes.
type Service struct {
	users      user.Repository
	sessions   SessionRepository
	tokens     *TokenManager
	bcryptCost int

	// Session expiry windows; the long one also applies to registration.
	refreshTTL      time.Duration
	refreshShortTTL time.Duration
}

func NewService(users user.Repository, sessions SessionRepository, tokens *TokenManager, bcryptCost int, refreshTTL, refreshShortTTL time.Duration) *Service {
	return &Service{
		users:           users,
		sessions:        sessions,
		tokens:          tokens,
		bcryptCost:      bcryptCost,
		refreshTTL:      refreshTTL,
		refreshShortTTL: refreshShortTTL,
	}
}

// RegisterRequest carries the registration payload.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// AuthResult pairs a sanitized account with its issued tokens.
type AuthResult struct {
	User   *user.User `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

// sanitize strips the password hash before the account leaves the service.
// The model's json tag already hides it; clearing the field keeps even
// reflective serializers safe.
func sanitize(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.Password = ""
	return &clean
}

// Register creates an account with the default user role and issues the
// first token pair. Email collisions win over username collisions.
func (s *Service) Register(req RegisterRequest, meta SessionMeta) (*AuthResult, error) {
	taken, err := s.users.ExistsByEmailOrUsername(req.Email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("existence check: %w", err)
	}
	if taken {
		if _, err := s.users.FindByEmail(req.Email); err == nil {
			return nil, ErrEmailExists
		}
		return nil, ErrUsernameExists
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateWithDefaultRole(&user.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Status:    user.StatusActive,
	}, role.NameUser)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.tokens.GeneratePair(created.ID, created.Username, created.Email)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	// Registration has no remember-me flag; the long window always applies.
	expiresAt := time.Now().Add(s.refreshTTL)
	if _, err := s.sessions.Create(created.ID, pair.RefreshToken, expiresAt, meta); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	log.Printf("user registered: %s", created.Email)
	return &AuthResult{User: sanitize(created), Tokens: pair}, nil
}

// Login authenticates by username, email or phone. The status check runs
// before the password comparison so inactive accounts never exercise bcrypt.
func (s *Service) Login(identifier, password string, rememberMe bool, meta SessionMeta) (*AuthResult, error) {
	u, err := s.users.FindByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !u.IsActive() {
		return nil, ErrAccountInactive
	}

	ok, err := utils.VerifyPassword(u.Password, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	withRoles, err := s.users.FindByIDWithRoles(u.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	pair, err := s.tokens.GeneratePair(u.ID, u.Username, u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	ttl := s.refreshShortTTL
	if rememberMe {
		ttl = s.refreshTTL
	}
	if _, err := s.sessions.Create(u.ID, pair.RefreshToken, time.Now().Add(ttl), meta); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	if err := s.users.UpdateLastLogin(u.ID); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	log.Printf("user logged in: %s", u.Email)
	return &AuthResult{User: sanitize(withRoles), Tokens: pair}, nil
}

// RefreshAccessToken rotates the refresh token: the old session is revoked
// and a new one created atomically, so a replayed token cannot yield a
// second live session.
func (s *Service) RefreshAccessToken(refreshToken string, meta SessionMeta) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !s.sessions.IsValid(refreshToken) {
		return nil, ErrTokenExpired
	}

	u, err := s.users.FindByIDWithRoles(claims.UserID)
	if err != nil || !u.IsActive() {
		return nil, ErrUserNotFound
	}

	pair, err := s.tokens.GeneratePair(u.ID, u.Username, u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTTL)
	if _, err := s.sessions.Rotate(refreshToken, u.ID, pair.RefreshToken, expiresAt, meta); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	log.Printf("token refreshed for user: %s", u.Email)
	return pair, nil
}

// Logout revokes a single refresh token. Strict variant: re-logout, unknown
// and expired tokens are errors rather than no-ops.
func (s *Service) Logout(refreshToken string) error {
	if refreshToken == "" {
		return ErrInvalidToken
	}
	if _, err := s.tokens.VerifyRefresh(refreshToken); err != nil {
		return ErrInvalidToken
	}

	rec, err := s.sessions.FindByToken(refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("find session: %w", err)
	}
	if rec.RevokedAt != nil {
		return ErrTokenAlreadyRevoked
	}
	if time.Now().After(rec.ExpiresAt) {
		return ErrTokenExpired
	}

	if _, err := s.sessions.Revoke(refreshToken); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	log.Printf("user %d logged out", rec.UserID)
	return nil
}

// LogoutAll revokes every active session for the account.
func (s *Service) LogoutAll(userID uint) error {
	if err := s.sessions.RevokeAll(userID); err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}
	log.Printf("user %d logged out from all devices", userID)
	return nil
}

// GetCurrentUser loads the account with roles, sanitized.
func (s *Service) GetCurrentUser(userID uint) (*user.User, error) {
	u, err := s.users.FindByIDWithRoles(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return sanitize(u), nil
}

// Sessions lists the account's active sessions, most recent first.
func (s *Service) Sessions(userID uint) ([]RefreshTokenRecord, error) {
	return s.sessions.ListActive(userID)
}
