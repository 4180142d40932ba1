package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"gorm.io/gorm"
)

// SessionMeta carries optional device metadata stored with each session.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// SessionRepository persists refresh-token records. All methods take the raw
// signed token; hashing happens internally.
type SessionRepository interface {
	Create(userID uint, token string, expiresAt time.Time, meta SessionMeta) (*RefreshTokenRecord, error)
	FindByToken(token string) (*RefreshTokenRecord, error)
	// Revoke marks the record revoked. Returns false without error when the
	// token is unknown or already revoked.
	Revoke(token string) (bool, error)
	RevokeAll(userID uint) error
	IsValid(token string) bool
	ListActive(userID uint) ([]RefreshTokenRecord, error)
	// Rotate revokes old and creates the replacement in one transaction.
	// When old was already revoked or is unknown, it fails with
	// ErrTokenExpired and creates nothing: under concurrent refreshes of the
	// same token exactly one caller wins.
	Rotate(oldToken string, userID uint, newToken string, expiresAt time.Time, meta SessionMeta) (*RefreshTokenRecord, error)
	DeleteExpiredOrRevoked() (int64, error)
}

type sessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepositoryImpl{db: db}
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (r *sessionRepositoryImpl) Create(userID uint, token string, expiresAt time.Time, meta SessionMeta) (*RefreshTokenRecord, error) {
	rec := RefreshTokenRecord{
		UserID:    userID,
		TokenHash: hashToken(token),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: expiresAt,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sessionRepositoryImpl) FindByToken(token string) (*RefreshTokenRecord, error) {
	var rec RefreshTokenRecord
	if err := r.db.Where("token_hash = ?", hashToken(token)).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sessionRepositoryImpl) Revoke(token string) (bool, error) {
	res := r.db.Model(&RefreshTokenRecord{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashToken(token)).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepositoryImpl) RevokeAll(userID uint) error {
	return r.db.Model(&RefreshTokenRecord{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

func (r *sessionRepositoryImpl) IsValid(token string) bool {
	rec, err := r.FindByToken(token)
	if err != nil {
		return false
	}
	return rec.Valid(time.Now())
}

func (r *sessionRepositoryImpl) ListActive(userID uint) ([]RefreshTokenRecord, error) {
	var recs []RefreshTokenRecord
	err := r.db.
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

func (r *sessionRepositoryImpl) Rotate(oldToken string, userID uint, newToken string, expiresAt time.Time, meta SessionMeta) (*RefreshTokenRecord, error) {
	rec := RefreshTokenRecord{
		UserID:    userID,
		TokenHash: hashToken(newToken),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: expiresAt,
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&RefreshTokenRecord{}).
			Where("token_hash = ? AND revoked_at IS NULL", hashToken(oldToken)).
			Update("revoked_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		// Zero rows means a concurrent rotation already consumed the token.
		if res.RowsAffected == 0 {
			return ErrTokenExpired
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sessionRepositoryImpl) DeleteExpiredOrRevoked() (int64, error) {
	res := r.db.
		Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&RefreshTokenRecord{})
	return res.RowsAffected, res.Error
}
