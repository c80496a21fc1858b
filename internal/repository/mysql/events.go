package mysql

import (
    "context"
    "database/sql"

    "github.com/digivite/digivite/internal/model"
)

const eventCols = `id, slug, title, date, venue, admin_id, created_at`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanEvent(r rowScanner) (*model.Event, error) {
    var (
        ev      model.Event
        venue   sql.NullString
        adminID sql.NullString
    )
    if err := r.Scan(&ev.ID, &ev.Slug, &ev.Title, &ev.Date, &venue, &adminID, &ev.CreatedAt); err != nil {
        return nil, err
    }
    ev.Venue = stringPtr(venue)
    ev.AdminID = adminID.String
    return &ev, nil
}

func (s *Store) CreateEvent(ctx context.Context, ev *model.Event) error {
    const q = `INSERT INTO events (` + eventCols + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
    adminID := sql.NullString{String: ev.AdminID, Valid: ev.AdminID != ""}
    _, err := s.q.ExecContext(ctx, q, ev.ID, ev.Slug, ev.Title, ev.Date.UTC(), nullString(ev.Venue), adminID, ev.CreatedAt.UTC())
    return mapErr(err, "event")
}

func (s *Store) GetEvent(ctx context.Context, id string) (*model.Event, error) {
    const q = `SELECT ` + eventCols + ` FROM events WHERE id = ?`
    ev, err := scanEvent(s.q.QueryRowContext(ctx, q, id))
    return ev, mapErr(err, "event")
}

// FindEvent prefers an id match, then a slug match, then the newest event
// with that title.
func (s *Store) FindEvent(ctx context.Context, ref string) (*model.Event, error) {
    const q = `SELECT ` + eventCols + ` FROM events
        WHERE id = ? OR slug = ? OR title = ?
        ORDER BY (id = ?) DESC, (slug = ?) DESC, created_at DESC
        LIMIT 1`
    ev, err := scanEvent(s.q.QueryRowContext(ctx, q, ref, ref, ref, ref, ref))
    return ev, mapErr(err, "event")
}

func (s *Store) ListEventsByAdmin(ctx context.Context, adminID string) ([]model.Event, error) {
    const q = `SELECT ` + eventCols + ` FROM events WHERE admin_id = ? ORDER BY created_at DESC`
    rows, err := s.q.QueryContext(ctx, q, adminID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Event{}
    for rows.Next() {
        ev, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *ev)
    }
    return out, rows.Err()
}

func (s *Store) LatestEventByAdmin(ctx context.Context, adminID string) (*model.Event, error) {
    const q = `SELECT ` + eventCols + ` FROM events WHERE admin_id = ? ORDER BY created_at DESC LIMIT 1`
    ev, err := scanEvent(s.q.QueryRowContext(ctx, q, adminID))
    return ev, mapErr(err, "event")
}

func (s *Store) LatestEventWithGuests(ctx context.Context, checkedInOnly bool) (*model.Event, error) {
    q := `SELECT ` + eventCols + ` FROM events e
        WHERE EXISTS (SELECT 1 FROM guests g WHERE g.event_id = e.id`
    if checkedInOnly {
        q += ` AND g.checked_in = TRUE`
    }
    q += `) ORDER BY e.created_at DESC LIMIT 1`
    ev, err := scanEvent(s.q.QueryRowContext(ctx, q))
    return ev, mapErr(err, "event")
}

func (s *Store) EventSlugExists(ctx context.Context, slug string) (bool, error) {
    var n int
    err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE slug = ?`, slug).Scan(&n)
    return n > 0, err
}
