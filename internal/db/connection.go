package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

const (
	SchemePostgres = "postgres"
	SchemeSQLite   = "sqlite"
)

// Scheme returns database kind of the DSN: SchemePostgres or SchemeSQLite
func Scheme(dsn string) (string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return SchemePostgres, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return SchemeSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database dsn, expected 'postgres://...' or 'sqlite://...'")
	}
}

// Run embedded migrations
// Check the example at https://github.com/golang-migrate/migrate/blob/v4.18.1/source/iofs/example_test.go
// dsn: database source name in format postgres://...
func Migrate(dsn string) error {
	source, err := iofs.New(migrations, "migrations/postgres")
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithSourceInstance(
		"iofs",
		source,
		strings.NewReplacer(
			"postgres://", "pgx5://", // golang-migrate expects dsn in format 'pgx5://...' only, make it happy with 'postgres://...'
			"postgresql://", "pgx5://", // golang-migrate expects
		).Replace(dsn),
	)
	if err != nil {
		return fmt.Errorf("error while preparing migrator. Err: %w", err)
	}

	err = migrator.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error while applying migrations. Err: %w", err)
	}

	return nil
}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cant initialize connection pool. Err: %w", err)
	}

	return pool, err
}

func ConnectAndMigrate(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	err := Migrate(dsn)
	if err != nil {
		return nil, err
	}

	return Connect(ctx, dsn)
}

// Open sqlite database
// dsn: 'sqlite://path/to/file.db' or 'sqlite://:memory:'
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		return nil, errors.New("sqlite dsn has no path")
	}

	memory := path == ":memory:"
	if !memory {
		path = "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cant open sqlite database. Err: %w", err)
	}

	// Every connection to ':memory:' is a separate database, so keep only one.
	// File database allows one writer anyway
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("cant connect to sqlite database. Err: %w", err)
	}

	return conn, nil
}

// Run embedded sqlite migrations on the opened database
func MigrateSQLite(conn *sql.DB) error {
	source, err := iofs.New(migrations, "migrations/sqlite")
	if err != nil {
		return err
	}

	driver, err := sqlite3.WithInstance(conn, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("error while preparing sqlite driver. Err: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("error while preparing migrator. Err: %w", err)
	}

	err = migrator.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error while applying migrations. Err: %w", err)
	}

	return nil
}

func OpenAndMigrateSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := MigrateSQLite(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}
