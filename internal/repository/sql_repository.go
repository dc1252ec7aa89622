package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// SQLRepository stores carts in a relational table. It serves both the sqlite
// and the postgres drivers; the queries are valid in both dialects.
type SQLRepository struct {
	db      *sql.DB
	dialect string
}

func NewSQLiteRepository(path string) (*SQLRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	return newSQLRepository(db, DialectSQLite)
}

func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return newSQLRepository(db, DialectPostgres)
}

func newSQLRepository(db *sql.DB, dialect string) (*SQLRepository, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLRepository{db: db, dialect: dialect}, nil
}

func (r *SQLRepository) RunMigrations() error {
	var (
		driver database.Driver
		err    error
	)
	switch r.dialect {
	case DialectSQLite:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	case DialectPostgres:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported dialect %q", r.dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, r.dialect, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	query := `
		SELECT payload
		FROM carts
		WHERE cart_id = $1
	`

	var payload string
	err := r.db.QueryRowContext(ctx, query, cartID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	return decodeCart(cartID, []byte(payload))
}

func (r *SQLRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO carts (cart_id, payload, version, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id) DO UPDATE
		SET payload = excluded.payload,
		    version = excluded.version,
		    updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query, cart.ID, string(data), cart.Version, cart.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteCart(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
