package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/kleverbot/kleverbot-api/internal/role"
	"gorm.io/gorm"
)

// ErrForbiddenField rejects profile updates that try to touch fields with
// dedicated code paths (email, status, password).
var ErrForbiddenField = errors.New("field cannot be changed through profile update")

// UpdateProfileRequest carries the allow-listed mutable profile fields.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar"`

	// Decoded but never applied; presence fails the request.
	Email    *string `json:"email"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
}

// ListFilters narrows the administrative user listing.
type ListFilters struct {
	Page   int
	Limit  int
	Search string
	Status string
	Role   string
}

type Repository interface {
	FindByEmail(email string) (*User, error)
	FindByUsername(username string) (*User, error)
	FindByIdentifier(identifier string) (*User, error)
	FindByIDWithRoles(id uint) (*User, error)
	ExistsByEmailOrUsername(email, username string) (bool, error)
	CreateWithDefaultRole(u *User, roleName string) (*User, error)
	UpdateLastLogin(id uint) error
	UpdateProfile(id uint, req *UpdateProfileRequest) (*User, error)
	UpdatePassword(id uint, hash string) error
	ReplaceRoles(id uint, roles []role.Role) error
	List(filters ListFilters) ([]User, int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindByEmail(email string) (*User, error) {
	var u User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) FindByUsername(username string) (*User, error) {
	var u User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByIdentifier matches email, username or phone. The three columns are
// unique so at most one row can match.
func (r *repositoryImpl) FindByIdentifier(identifier string) (*User, error) {
	var u User
	err := r.db.
		Where("email = ? OR username = ? OR phone = ?", identifier, identifier, identifier).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) FindByIDWithRoles(id uint) (*User, error) {
	var u User
	if err := r.db.Preload("Roles").First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) ExistsByEmailOrUsername(email, username string) (bool, error) {
	var count int64
	err := r.db.Model(&User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	return count > 0, err
}

// CreateWithDefaultRole inserts the account and its initial role assignment
// in one transaction; both succeed or neither does.
func (r *repositoryImpl) CreateWithDefaultRole(u *User, roleName string) (*User, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		var assigned role.Role
		if err := tx.Where("name = ?", roleName).First(&assigned).Error; err != nil {
			return fmt.Errorf("default role %q: %w", roleName, err)
		}
		return tx.Model(u).Association("Roles").Append(&assigned)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByIDWithRoles(u.ID)
}

func (r *repositoryImpl) UpdateLastLogin(id uint) error {
	now := time.Now()
	return r.db.Model(&User{}).Where("id = ?", id).
		Update("last_login_at", &now).Error
}

// UpdateProfile applies only the allow-listed fields. Sensitive fields have
// their own audited code paths and are rejected here.
func (r *repositoryImpl) UpdateProfile(id uint, req *UpdateProfileRequest) (*User, error) {
	if req.Email != nil || req.Status != nil || req.Password != nil {
		return nil, ErrForbiddenField
	}

	var u User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Avatar != nil {
		u.Avatar = *req.Avatar
	}
	if err := r.db.Save(&u).Error; err != nil {
		return nil, err
	}
	return r.FindByIDWithRoles(id)
}

func (r *repositoryImpl) UpdatePassword(id uint, hash string) error {
	return r.db.Model(&User{}).Where("id = ?", id).
		Update("password", hash).Error
}

func (r *repositoryImpl) ReplaceRoles(id uint, roles []role.Role) error {
	var u User
	if err := r.db.First(&u, id).Error; err != nil {
		return err
	}
	return r.db.Model(&u).Association("Roles").Replace(roles)
}

func (r *repositoryImpl) List(filters ListFilters) ([]User, int64, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	q := r.db.Model(&User{})
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		q = q.Where(
			"username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			like, like, like, like)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Role != "" {
		q = q.Joins("JOIN user_roles ur ON ur.user_id = users.id").
			Joins("JOIN roles ON roles.id = ur.role_id").
			Where("roles.name = ?", filters.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	err := q.Preload("Roles").
		Order("created_at DESC").
		Offset((filters.Page - 1) * filters.Limit).
		Limit(filters.Limit).
		Find(&users).Error
	return users, total, err
}
