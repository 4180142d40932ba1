package role

import "time"

// Role is a named permission group. Accounts reference roles through the
// user_roles join table; the auth core only reads roles after seeding.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	DisplayName string    `gorm:"size:100" json:"displayName"`
	Description string    `gorm:"size:255" json:"description"`
	Level       int       `gorm:"default:1" json:"level"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Default role names used across the service.
const (
	NameUser       = "user"
	NameAdmin      = "admin"
	NameSuperAdmin = "super_admin"
)
