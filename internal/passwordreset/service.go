package passwordreset

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kleverbot/kleverbot-api/internal/auth"
	"github.com/kleverbot/kleverbot-api/internal/mailer"
	"github.com/kleverbot/kleverbot-api/internal/user"
	"github.com/kleverbot/kleverbot-api/internal/utils"
	"gorm.io/gorm"
)

// Service drives the password-reset email flow.
type Service struct {
	users      user.Repository
	tokens     Repository
	sessions   auth.SessionRepository
	mail       mailer.Mailer
	tokenTTL   time.Duration
	bcryptCost int
	// Base URL the reset link points at, e.g. the frontend origin.
	frontendURL string
}

func NewService(users user.Repository, tokens Repository, sessions auth.SessionRepository, mail mailer.Mailer, tokenTTL time.Duration, bcryptCost int, frontendURL string) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		sessions:    sessions,
		mail:        mail,
		tokenTTL:    tokenTTL,
		bcryptCost:  bcryptCost,
		frontendURL: frontendURL,
	}
}

// Request creates a reset token for the account and emails the reset link.
// Issuing a new token does not invalidate previously issued ones.
func (s *Service) Request(email string) error {
	u, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	if _, err := s.tokens.Create(u.ID, token, time.Now().Add(s.tokenTTL)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	name := u.FirstName
	if name == "" {
		name = u.Username
	}
	resetURL := fmt.Sprintf("%s/password-reset?token=%s", s.frontendURL, token)
	msg := mailer.Message{
		To:      u.Email,
		Subject: "Password reset request",
		Body: fmt.Sprintf(
			"Hi %s,\n\nA password reset was requested for your account. "+
				"Open the link below within %d minutes to choose a new password:\n\n%s\n\n"+
				"If you did not request this, you can ignore this email.\n",
			name, int(s.tokenTTL.Minutes()), resetURL),
	}
	if err := s.mail.Send(msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	log.Printf("password reset email sent to %s", u.Email)
	return nil
}

// Confirm consumes the token and sets the new password. Every session of the
// account is revoked afterwards so stolen refresh tokens die with the old
// password.
func (s *Service) Confirm(token, newPassword string) error {
	rec, err := s.tokens.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.ErrInvalidToken
		}
		return fmt.Errorf("find token: %w", err)
	}
	if time.Now().After(rec.ExpiresAt) {
		return auth.ErrTokenExpired
	}

	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(rec.UserID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.tokens.Consume(rec.ID); err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if err := s.sessions.RevokeAll(rec.UserID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	log.Printf("password reset completed for user %d", rec.UserID)
	return nil
}
