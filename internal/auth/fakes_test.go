package auth

import (
	"sync"
	"time"

	"github.com/kleverbot/kleverbot-api/internal/role"
	"github.com/kleverbot/kleverbot-api/internal/user"
	"gorm.io/gorm"
)

// In-memory fakes standing in for the GORM repositories.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[uint]*user.User)}
}

func (f *fakeUserRepo) clone(u *user.User) *user.User {
	c := *u
	c.Roles = append([]role.Role(nil), u.Roles...)
	return &c
}

func (f *fakeUserRepo) findBy(match func(*user.User) bool) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return f.clone(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(email string) (*user.User, error) {
	return f.findBy(func(u *user.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) FindByUsername(username string) (*user.User, error) {
	return f.findBy(func(u *user.User) bool { return u.Username == username })
}

func (f *fakeUserRepo) FindByIdentifier(id string) (*user.User, error) {
	return f.findBy(func(u *user.User) bool {
		return u.Email == id || u.Username == id || (u.Phone != "" && u.Phone == id)
	})
}

func (f *fakeUserRepo) FindByIDWithRoles(id uint) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.clone(u), nil
}

func (f *fakeUserRepo) ExistsByEmailOrUsername(email, username string) (bool, error) {
	_, err := f.findBy(func(u *user.User) bool {
		return u.Email == email || u.Username == username
	})
	return err == nil, nil
}

func (f *fakeUserRepo) CreateWithDefaultRole(u *user.User, roleName string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	u.Roles = []role.Role{{ID: 1, Name: roleName, Level: 1, IsActive: true}}
	u.CreatedAt = time.Now()
	f.users[u.ID] = u
	return f.clone(u), nil
}

func (f *fakeUserRepo) UpdateLastLogin(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUserRepo) UpdateProfile(id uint, req *user.UpdateProfileRequest) (*user.User, error) {
	if req.Email != nil || req.Status != nil || req.Password != nil {
		return nil, user.ErrForbiddenField
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	return f.clone(u), nil
}

func (f *fakeUserRepo) UpdatePassword(id uint, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUserRepo) ReplaceRoles(id uint, roles []role.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Roles = roles
	return nil
}

func (f *fakeUserRepo) List(user.ListFilters) ([]user.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]user.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *f.clone(u))
	}
	return out, int64(len(out)), nil
}

type fakeSessionRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[string]*RefreshTokenRecord // keyed by raw token
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{nextID: 1, records: make(map[string]*RefreshTokenRecord)}
}

func (f *fakeSessionRepo) Create(userID uint, token string, expiresAt time.Time, meta SessionMeta) (*RefreshTokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := &RefreshTokenRecord{
		ID:        f.nextID,
		UserID:    userID,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.records[token] = rec
	return rec, nil
}

func (f *fakeSessionRepo) FindByToken(token string) (*RefreshTokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *rec
	return &c, nil
}

func (f *fakeSessionRepo) Revoke(token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[token]
	if !ok || rec.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	rec.RevokedAt = &now
	return true, nil
}

func (f *fakeSessionRepo) RevokeAll(userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, rec := range f.records {
		if rec.UserID == userID && rec.RevokedAt == nil {
			rec.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionRepo) IsValid(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[token]
	return ok && rec.Valid(time.Now())
}

func (f *fakeSessionRepo) ListActive(userID uint) ([]RefreshTokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RefreshTokenRecord
	for _, rec := range f.records {
		if rec.UserID == userID && rec.Valid(time.Now()) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Rotate(oldToken string, userID uint, newToken string, expiresAt time.Time, meta SessionMeta) (*RefreshTokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.records[oldToken]
	if !ok || old.RevokedAt != nil {
		return nil, ErrTokenExpired
	}
	now := time.Now()
	old.RevokedAt = &now
	rec := &RefreshTokenRecord{
		ID:        f.nextID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	f.nextID++
	f.records[newToken] = rec
	c := *rec
	return &c, nil
}

func (f *fakeSessionRepo) DeleteExpiredOrRevoked() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for token, rec := range f.records {
		if !rec.Valid(now) {
			delete(f.records, token)
			n++
		}
	}
	return n, nil
}
