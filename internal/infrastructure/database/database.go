package database

import (
	"teamhub-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers.
// TranslateError maps driver errors to gorm.ErrDuplicatedKey /
// gorm.ErrForeignKeyViolated, which the provisioning transaction relies on
// to tell a duplicate role grant apart from other insert failures.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
}

// AutoMigrate runs migrations for all onboarding models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Club{},
		&domain.Team{},
		&domain.Invitation{},
		&domain.RoleGrant{},
	)
}
