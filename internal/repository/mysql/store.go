// Package mysql implements service.Repository on top of database/sql and
// go-sql-driver/mysql.  Timestamps are stored in UTC (the DSN sets
// parseTime=true and loc=UTC).
package mysql

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    mysqldrv "github.com/go-sql-driver/mysql"

    "github.com/digivite/digivite/internal/service"
)

var _ service.Repository = (*Store)(nil)

// dbtx is the part of *sql.DB and *sql.Tx the store needs.
type dbtx interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a MySQL-backed repository.  The zero value is not usable; build
// it with New.
type Store struct {
    db *sql.DB
    q  dbtx
    tx *sql.Tx // non-nil inside Transaction
}

// New returns a Store bound to db.
func New(db *sql.DB) *Store { return &Store{db: db, q: db} }

// DB exposes the underlying pool, e.g. for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Transaction runs fn inside a single InnoDB transaction.  A nested call
// joins the outer transaction.  The transaction is rolled back when fn
// returns an error or panics, and committed otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(service.Repository) error) error {
    if s.tx != nil {
        return fn(s)
    }
    tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit: %w", err)
    }
    committed = true
    return nil
}

// forUpdate appends a row lock when running inside a transaction.  Outside
// one the lock would be released immediately, so it is skipped.
func (s *Store) forUpdate(q string) string {
    if s.tx == nil {
        return q
    }
    return q + " FOR UPDATE"
}

const (
    errDupEntry        = 1062
    errRowIsReferenced = 1451
    errNoReferencedRow = 1452
)

// mapErr translates driver errors into service errors.  entity names the
// row for sql.ErrNoRows.
func mapErr(err error, entity string) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return service.NotFound(entity)
    }
    var me *mysqldrv.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case errDupEntry:
            return fmt.Errorf("%s: %s: %w", entity, me.Message, service.ErrDuplicate)
        case errRowIsReferenced:
            return fmt.Errorf("%s is still referenced: %w", entity, service.ErrConflict)
        case errNoReferencedRow:
            return fmt.Errorf("%s references a missing row: %w", entity, service.ErrNotFound)
        }
    }
    return err
}

// affectedOrNotFound turns a zero-row UPDATE into NotFound(entity).
func affectedOrNotFound(res sql.Result, entity string) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return service.NotFound(entity)
    }
    return nil
}

func nullString(p *string) sql.NullString {
    if p == nil {
        return sql.NullString{}
    }
    return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
    if !ns.Valid {
        return nil
    }
    v := ns.String
    return &v
}

func nullTime(p *time.Time) sql.NullTime {
    if p == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: p.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
    if !nt.Valid {
        return nil
    }
    v := nt.Time
    return &v
}
