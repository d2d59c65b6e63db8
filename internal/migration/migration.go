package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	featuredomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/feature/domain"
	plandomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/plan/domain"
	subscriptiondomain "github.com/anirbanchakraborty123/Api-based-subscription-service/internal/subscription/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded postgres migrations so the service is
// usable out of the box for local and self-hosted environments.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema through gorm for the non-postgres dialects
// used in development and tests.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	if err := db.AutoMigrate(
		&featuredomain.Feature{},
		&plandomain.Plan{},
		&subscriptiondomain.User{},
		&subscriptiondomain.Subscription{},
	); err != nil {
		return err
	}

	return EnsureActiveSubscriptionIndex(db)
}

// EnsureActiveSubscriptionIndex creates the partial unique index that holds
// the one-active-subscription-per-user invariant. Partial indexes are not
// expressible as gorm tags, so the index is raw SQL per dialect.
func EnsureActiveSubscriptionIndex(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		return db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_subscriptions_user_active
			 ON subscriptions (user_id) WHERE is_active`,
		).Error
	default:
		// MySQL has no partial indexes. Uniqueness there rests on the
		// transactional deactivate-then-insert write path alone.
		return nil
	}
}
