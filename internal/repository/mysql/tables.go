package mysql

import (
    "context"

    "github.com/digivite/digivite/internal/model"
)

const tableCols = `id, event_id, number, capacity, created_at`

func scanTable(r rowScanner) (*model.Table, error) {
    var t model.Table
    if err := r.Scan(&t.ID, &t.EventID, &t.Number, &t.Capacity, &t.CreatedAt); err != nil {
        return nil, err
    }
    return &t, nil
}

func (s *Store) CreateTable(ctx context.Context, t *model.Table) error {
    const q = `INSERT INTO seating_tables (` + tableCols + `) VALUES (?, ?, ?, ?, ?)`
    _, err := s.q.ExecContext(ctx, q, t.ID, t.EventID, t.Number, t.Capacity, t.CreatedAt.UTC())
    return mapErr(err, "table")
}

func (s *Store) GetTable(ctx context.Context, id string) (*model.Table, error) {
    const q = `SELECT ` + tableCols + ` FROM seating_tables WHERE id = ?`
    t, err := scanTable(s.q.QueryRowContext(ctx, q, id))
    return t, mapErr(err, "table")
}

// LockTable holds the table row until the surrounding transaction ends.
// Every seat-accounting write against the table takes this lock first.
func (s *Store) LockTable(ctx context.Context, id string) (*model.Table, error) {
    q := s.forUpdate(`SELECT ` + tableCols + ` FROM seating_tables WHERE id = ?`)
    t, err := scanTable(s.q.QueryRowContext(ctx, q, id))
    return t, mapErr(err, "table")
}

func (s *Store) ListTables(ctx context.Context, eventID string) ([]model.Table, error) {
    const q = `SELECT ` + tableCols + ` FROM seating_tables WHERE event_id = ? ORDER BY number ASC`
    rows, err := s.q.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Table{}
    for rows.Next() {
        t, err := scanTable(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    return out, rows.Err()
}

// MaxTableNumber locks the event's table range inside a transaction so two
// concurrent auto-numbered creates cannot pick the same number.
func (s *Store) MaxTableNumber(ctx context.Context, eventID string) (int, error) {
    q := s.forUpdate(`SELECT COALESCE(MAX(number), 0) FROM seating_tables WHERE event_id = ?`)
    var n int
    err := s.q.QueryRowContext(ctx, q, eventID).Scan(&n)
    return n, err
}

func (s *Store) SeatsUsed(ctx context.Context, tableID string) (int, error) {
    const q = `SELECT COALESCE(SUM(number_of_guests), 0) FROM guests WHERE table_id = ?`
    var n int
    err := s.q.QueryRowContext(ctx, q, tableID).Scan(&n)
    return n, err
}

// DeleteTable fails with ErrConflict while guests reference the table
// (guests.table_id is ON DELETE RESTRICT).
func (s *Store) DeleteTable(ctx context.Context, id string) error {
    res, err := s.q.ExecContext(ctx, `DELETE FROM seating_tables WHERE id = ?`, id)
    if err != nil {
        return mapErr(err, "table")
    }
    return affectedOrNotFound(res, "table")
}
