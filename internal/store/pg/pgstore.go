// Package pg implements the persistence interfaces on PostgreSQL through
// database/sql with the pgx stdlib driver.
package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle. Used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Identities returns the identity persistence bound to this pool.
func (s *Store) Identities() *IdentityStore { return &IdentityStore{db: s.db} }

// Notes returns the note persistence bound to this pool.
func (s *Store) Notes() *NoteStore { return &NoteStore{db: s.db} }

// Tasks returns the task persistence bound to this pool.
func (s *Store) Tasks() *TaskStore { return &TaskStore{db: s.db} }

// isUniqueViolation reports whether err is the Postgres unique_violation
// class (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
