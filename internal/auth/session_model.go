package auth

import "time"

// RefreshTokenRecord is the per-device session backing one issued refresh
// token. The raw token never hits the database; TokenHash stores its sha256.
type RefreshTokenRecord struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"userId"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserAgent string     `gorm:"size:255" json:"userAgent"`
	IP        string     `gorm:"size:45" json:"ip"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Valid reports whether the record is still usable at now: never revoked and
// not yet past its expiry.
func (r *RefreshTokenRecord) Valid(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}
