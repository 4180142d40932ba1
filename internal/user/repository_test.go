package user

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	return db, mock
}

func TestExistsByEmailOrUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1 OR username = \$2`).
		WithArgs("alice@ex.com", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.ExistsByEmailOrUsername("alice@ex.com", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !taken {
		t.Error("existing account reported free")
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1 OR username = \$2`).
		WithArgs("new@ex.com", "newbie").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	taken, err = repo.ExistsByEmailOrUsername("new@ex.com", "newbie")
	if err != nil {
		t.Fatal(err)
	}
	if taken {
		t.Error("fresh account reported taken")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindByIdentifierMatchesAnyColumn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "email", "phone", "status"}).
		AddRow(1, "alice", "alice@ex.com", "+15550001111", StatusActive)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1 OR username = \$2 OR phone = \$3`).
		WillReturnRows(rows)

	u, err := repo.FindByIdentifier("alice")
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "alice" {
		t.Errorf("username = %q", u.Username)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindByIdentifierNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnError(gorm.ErrRecordNotFound)

	if _, err := repo.FindByIdentifier("nobody"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestUpdateProfileRejectsSensitiveFields(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewRepository(db)

	email := "new@ex.com"
	status := StatusSuspended
	password := "sneaky"
	cases := []struct {
		name string
		req  UpdateProfileRequest
	}{
		{"email", UpdateProfileRequest{Email: &email}},
		{"status", UpdateProfileRequest{Status: &status}},
		{"password", UpdateProfileRequest{Password: &password}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// No SQL expectations: the repository must reject before hitting
			// the database.
			if _, err := repo.UpdateProfile(1, &tc.req); !errors.Is(err, ErrForbiddenField) {
				t.Errorf("err = %v, want ErrForbiddenField", err)
			}
		})
	}
}

func TestUpdateLastLogin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "last_login_at"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdateLastLogin(1); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
