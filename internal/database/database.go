package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Sentinel errors returned by the join and leave transactions. The room
// service maps these onto the join outcome taxonomy.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	// ErrRoomOverCapacity means joined_user_count exceeds max_user_count,
	// which the row lock should make impossible. Treat as ledger corruption.
	ErrRoomOverCapacity = errors.New("room over capacity")
	ErrAlreadyJoined    = errors.New("user already joined room")
	ErrNotJoined        = errors.New("user not joined to room")
)

type PgLiveRoomRepository struct {
	conn *sql.DB
}

func NewPgLiveRoomRepository(dsn string) (*PgLiveRoomRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgLiveRoomRepository{conn: db}, nil
}

// Migrate applies the embedded schema migrations.
func (db *PgLiveRoomRepository) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := pgmigrate.WithInstance(db.conn, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (db *PgLiveRoomRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgLiveRoomRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
