package user

import (
	"time"

	"github.com/kleverbot/kleverbot-api/internal/role"
)

// Account status values.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// User is the identity record. Password never leaves the service: the json
// tag strips it from every serialized representation.
type User struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Username        string      `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email           string      `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password        string      `gorm:"size:255;not null" json:"-"`
	FirstName       string      `gorm:"size:100" json:"firstName"`
	LastName        string      `gorm:"size:100" json:"lastName"`
	Phone           string      `gorm:"size:20;index" json:"phone"`
	Avatar          string      `gorm:"size:500" json:"avatar"`
	Status          string      `gorm:"size:20;default:active;index" json:"status"`
	EmailVerified   bool        `gorm:"default:false" json:"emailVerified"`
	EmailVerifiedAt *time.Time  `json:"emailVerifiedAt"`
	LastLoginAt     *time.Time  `json:"lastLoginAt"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Roles           []role.Role `gorm:"many2many:user_roles;" json:"roles"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// RoleNames returns the names of every assigned role.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether any assigned role matches one of the given names.
func (u *User) HasRole(names ...string) bool {
	for _, r := range u.Roles {
		for _, want := range names {
			if r.Name == want {
				return true
			}
		}
	}
	return false
}
