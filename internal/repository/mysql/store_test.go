package mysql

import (
    "database/sql"
    "errors"
    "fmt"
    "testing"

    mysqldrv "github.com/go-sql-driver/mysql"

    "github.com/digivite/digivite/internal/service"
)

func TestMapErr(t *testing.T) {
    cases := []struct {
        in   error
        want error
    }{
        {sql.ErrNoRows, service.ErrNotFound},
        {&mysqldrv.MySQLError{Number: errDupEntry, Message: "Duplicate entry 'x' for key 'uq_guests_slug'"}, service.ErrDuplicate},
        {&mysqldrv.MySQLError{Number: errRowIsReferenced}, service.ErrConflict},
        {fmt.Errorf("exec: %w", &mysqldrv.MySQLError{Number: errNoReferencedRow}), service.ErrNotFound},
    }
    for _, tc := range cases {
        if got := mapErr(tc.in, "guest"); !errors.Is(got, tc.want) {
            t.Errorf("mapErr(%v) = %v, want %v", tc.in, got, tc.want)
        }
    }
    if mapErr(nil, "guest") != nil {
        t.Error("mapErr(nil) should be nil")
    }
    other := errors.New("bad connection")
    if mapErr(other, "guest") != other {
        t.Error("unknown errors must pass through unchanged")
    }
    if got := mapErr(sql.ErrNoRows, "table").Error(); got != "table not found" {
        t.Errorf("unexpected message %q", got)
    }
}

func TestForUpdateOnlyInsideTransaction(t *testing.T) {
    s := &Store{}
    if got := s.forUpdate("SELECT 1"); got != "SELECT 1" {
        t.Fatalf("outside tx: %q", got)
    }
    s.tx = &sql.Tx{}
    if got := s.forUpdate("SELECT 1"); got != "SELECT 1 FOR UPDATE" {
        t.Fatalf("inside tx: %q", got)
    }
}

func TestQueryHelpers(t *testing.T) {
    if got := placeholders(3); got != "?, ?, ?" {
        t.Errorf("placeholders(3) = %q", got)
    }
    if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
        t.Errorf("escapeLike = %q", got)
    }
    if placeholderLike != `pending\_%` {
        t.Errorf("placeholderLike = %q", placeholderLike)
    }
}
