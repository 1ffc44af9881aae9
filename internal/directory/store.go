package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// User is an internal user record from the application database.
type User struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Email string    `db:"email"`
}

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("directory: user not found")

// Store looks internal users up by email or name.
type Store struct {
	db *sqlx.DB
}

// Open connects to the user database. The DSN uses lib/pq keyword form,
// e.g. "host=... dbname=... sslmode=disable".
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to user database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindByEmail returns the user with the given email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		`SELECT id, name, email FROM users WHERE lower(email) = lower($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

// FindByName returns users whose name matches, case-insensitively. Partial
// matches are included so "Alice" finds "Alice Meyer".
func (s *Store) FindByName(ctx context.Context, name string) ([]User, error) {
	var users []User
	err := s.db.SelectContext(ctx, &users,
		`SELECT id, name, email FROM users WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT 10`, name)
	if err != nil {
		return nil, fmt.Errorf("find users by name: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users, nil
}
