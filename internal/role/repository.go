package role

import "gorm.io/gorm"

type Repository interface {
	FindByName(name string) (*Role, error)
	FindByNames(names []string) ([]Role, error)
	ListAll() ([]Role, error)
	Seed() error
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindByName(name string) (*Role, error) {
	var role Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *repositoryImpl) FindByNames(names []string) ([]Role, error) {
	var roles []Role
	err := r.db.Where("name IN ?", names).Find(&roles).Error
	return roles, err
}

func (r *repositoryImpl) ListAll() ([]Role, error) {
	var roles []Role
	err := r.db.Order("level ASC").Find(&roles).Error
	return roles, err
}

// Seed inserts the default roles when they are missing. Existing rows are
// left untouched so administrative edits survive restarts.
func (r *repositoryImpl) Seed() error {
	defaults := []Role{
		{Name: NameUser, DisplayName: "User", Description: "Regular user", Level: 1, IsActive: true},
		{Name: NameAdmin, DisplayName: "Administrator", Description: "Service administrator", Level: 50, IsActive: true},
		{Name: NameSuperAdmin, DisplayName: "Super Administrator", Description: "Full access", Level: 100, IsActive: true},
	}
	for _, d := range defaults {
		var existing Role
		err := r.db.Where("name = ?", d.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := r.db.Create(&d).Error; err != nil {
			return err
		}
	}
	return nil
}
