package jobs

import (
	"context"
	"log"
	"time"

	"github.com/kleverbot/kleverbot-api/internal/auth"
	"github.com/kleverbot/kleverbot-api/internal/passwordreset"
)

// TokenCleanup periodically deletes expired or revoked refresh tokens and
// expired password-reset tokens. Runs off the request path.
type TokenCleanup struct {
	sessions auth.SessionRepository
	resets   passwordreset.Repository
	interval time.Duration
}

func NewTokenCleanup(sessions auth.SessionRepository, resets passwordreset.Repository, interval time.Duration) *TokenCleanup {
	return &TokenCleanup{sessions: sessions, resets: resets, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (c *TokenCleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *TokenCleanup) sweep() {
	if n, err := c.sessions.DeleteExpiredOrRevoked(); err != nil {
		log.Printf("session cleanup error: %v", err)
	} else if n > 0 {
		log.Printf("session cleanup removed %d records", n)
	}

	if n, err := c.resets.DeleteExpired(); err != nil {
		log.Printf("password reset cleanup error: %v", err)
	} else if n > 0 {
		log.Printf("password reset cleanup removed %d records", n)
	}
}
