package passwordreset

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(userID uint, token string, expiresAt time.Time) (*ResetToken, error)
	FindByToken(token string) (*ResetToken, error)
	// Consume deletes the record; a reset token is valid for one use only.
	Consume(id uint) error
	DeleteExpired() (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (r *repositoryImpl) Create(userID uint, token string, expiresAt time.Time) (*ResetToken, error) {
	rec := ResetToken{UserID: userID, TokenHash: hashToken(token), ExpiresAt: expiresAt}
	if err := r.db.Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repositoryImpl) FindByToken(token string) (*ResetToken, error) {
	var rec ResetToken
	if err := r.db.Where("token_hash = ?", hashToken(token)).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repositoryImpl) Consume(id uint) error {
	return r.db.Delete(&ResetToken{}, id).Error
}

func (r *repositoryImpl) DeleteExpired() (int64, error) {
	res := r.db.Where("expires_at < ?", time.Now()).Delete(&ResetToken{})
	return res.RowsAffected, res.Error
}
