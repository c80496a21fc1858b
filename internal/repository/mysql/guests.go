package mysql

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/digivite/digivite/internal/model"
    "github.com/digivite/digivite/internal/service"
)

const guestCols = `id, event_id, full_name, email, phone, status, number_of_guests, qr_code_token,
    slug, checked_in, check_in_time, table_id, gift_sent, rsvp_at, created_at, updated_at`

// placeholderLike matches placeholder tokens; the underscore is escaped so
// it is not a LIKE wildcard.
var placeholderLike = strings.ReplaceAll(model.PlaceholderTokenPrefix, "_", `\_`) + "%"

func scanGuest(r rowScanner) (*model.Guest, error) {
    var (
        g                        model.Guest
        status                   string
        email, phone, tableID    sql.NullString
        checkInTime, rsvpAt      sql.NullTime
    )
    err := r.Scan(&g.ID, &g.EventID, &g.FullName, &email, &phone, &status, &g.NumberOfGuests,
        &g.QRCodeToken, &g.Slug, &g.CheckedIn, &checkInTime, &tableID, &g.GiftSent, &rsvpAt,
        &g.CreatedAt, &g.UpdatedAt)
    if err != nil {
        return nil, err
    }
    g.Status = model.GuestStatus(status)
    g.Email = stringPtr(email)
    g.Phone = stringPtr(phone)
    g.TableID = stringPtr(tableID)
    g.CheckInTime = timePtr(checkInTime)
    g.RSVPAt = timePtr(rsvpAt)
    return &g, nil
}

func (s *Store) CreateGuest(ctx context.Context, g *model.Guest) error {
    const q = `INSERT INTO guests (` + guestCols + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := s.q.ExecContext(ctx, q,
        g.ID, g.EventID, g.FullName, nullString(g.Email), nullString(g.Phone), string(g.Status),
        g.NumberOfGuests, g.QRCodeToken, g.Slug, g.CheckedIn, nullTime(g.CheckInTime),
        nullString(g.TableID), g.GiftSent, nullTime(g.RSVPAt), g.CreatedAt.UTC(), g.UpdatedAt.UTC())
    return mapErr(err, "guest")
}

func (s *Store) GuestSlugExists(ctx context.Context, slug string) (bool, error) {
    var n int
    err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM guests WHERE slug = ?`, slug).Scan(&n)
    return n > 0, err
}

func (s *Store) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
    const q = `SELECT ` + guestCols + ` FROM guests WHERE id = ?`
    g, err := scanGuest(s.q.QueryRowContext(ctx, q, id))
    return g, mapErr(err, "guest")
}

func (s *Store) LockGuest(ctx context.Context, id string) (*model.Guest, error) {
    q := s.forUpdate(`SELECT ` + guestCols + ` FROM guests WHERE id = ?`)
    g, err := scanGuest(s.q.QueryRowContext(ctx, q, id))
    return g, mapErr(err, "guest")
}

func (s *Store) GetGuestBySlug(ctx context.Context, slug string) (*model.Guest, error) {
    const q = `SELECT ` + guestCols + ` FROM guests WHERE slug = ?`
    g, err := scanGuest(s.q.QueryRowContext(ctx, q, slug))
    return g, mapErr(err, "guest")
}

// FindGuestByTokenOrSlug prefers a token match over a slug match.
func (s *Store) FindGuestByTokenOrSlug(ctx context.Context, token string) (*model.Guest, error) {
    const q = `SELECT ` + guestCols + ` FROM guests
        WHERE qr_code_token = ? OR slug = ?
        ORDER BY (qr_code_token = ?) DESC
        LIMIT 1`
    g, err := scanGuest(s.q.QueryRowContext(ctx, q, token, token, token))
    return g, mapErr(err, "guest")
}

func (s *Store) ListGuests(ctx context.Context, eventID string, limit int) ([]model.GuestListItem, error) {
    q := `SELECT id, full_name, slug, email, phone, created_at FROM guests`
    var args []any
    if eventID != "" {
        q += ` WHERE event_id = ?`
        args = append(args, eventID)
    }
    q += ` ORDER BY created_at DESC LIMIT ?`
    args = append(args, limit)

    rows, err := s.q.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.GuestListItem{}
    for rows.Next() {
        var (
            it           model.GuestListItem
            email, phone sql.NullString
        )
        if err := rows.Scan(&it.ID, &it.FullName, &it.Slug, &email, &phone, &it.CreatedAt); err != nil {
            return nil, err
        }
        it.Email = stringPtr(email)
        it.Phone = stringPtr(phone)
        out = append(out, it)
    }
    return out, rows.Err()
}

// RecordRSVP is a conditional update: it only matches a guest that still
// holds a placeholder token and has no RSVP time, so of two racing RSVPs
// exactly one changes the row.
func (s *Store) RecordRSVP(ctx context.Context, guestID string, u service.RSVPUpdate) (bool, error) {
    const q = `UPDATE guests
        SET email = ?, phone = ?, number_of_guests = ?, status = ?, qr_code_token = ?, rsvp_at = ?, updated_at = ?
        WHERE id = ? AND rsvp_at IS NULL AND (qr_code_token LIKE ? OR qr_code_token = '')`
    res, err := s.q.ExecContext(ctx, q,
        u.Email, nullString(u.Phone), u.NumberOfGuests, string(model.StatusAccepted), u.Token,
        u.At.UTC(), u.At.UTC(), guestID, placeholderLike)
    if err != nil {
        return false, mapErr(err, "guest")
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

func (s *Store) SetGuestStatus(ctx context.Context, guestID string, status model.GuestStatus, at time.Time) error {
    const q = `UPDATE guests SET status = ?, updated_at = ? WHERE id = ?`
    res, err := s.q.ExecContext(ctx, q, string(status), at.UTC(), guestID)
    if err != nil {
        return mapErr(err, "guest")
    }
    return affectedOrNotFound(res, "guest")
}

func (s *Store) MarkGiftSent(ctx context.Context, guestID string, at time.Time) error {
    const q = `UPDATE guests SET gift_sent = TRUE, updated_at = ? WHERE id = ?`
    res, err := s.q.ExecContext(ctx, q, at.UTC(), guestID)
    if err != nil {
        return mapErr(err, "guest")
    }
    return affectedOrNotFound(res, "guest")
}

func (s *Store) SeatGuest(ctx context.Context, guestID string, u service.SeatingUpdate) error {
    const q = `UPDATE guests
        SET table_id = ?, checked_in = COALESCE(?, checked_in), status = ?, check_in_time = ?, updated_at = ?
        WHERE id = ?`
    var checkedIn sql.NullBool
    if u.CheckedIn != nil {
        checkedIn = sql.NullBool{Bool: *u.CheckedIn, Valid: true}
    }
    res, err := s.q.ExecContext(ctx, q, u.TableID, checkedIn, string(u.Status), nullTime(u.CheckInTime), u.At.UTC(), guestID)
    if err != nil {
        return mapErr(err, "table")
    }
    return affectedOrNotFound(res, "guest")
}

func (s *Store) SetPartySize(ctx context.Context, guestID string, n int, at time.Time) error {
    const q = `UPDATE guests SET number_of_guests = ?, updated_at = ? WHERE id = ?`
    res, err := s.q.ExecContext(ctx, q, n, at.UTC(), guestID)
    if err != nil {
        return mapErr(err, "guest")
    }
    return affectedOrNotFound(res, "guest")
}

func (s *Store) ListInvitationRecipients(ctx context.Context, eventID string) ([]model.Guest, error) {
    q := `SELECT ` + guestCols + ` FROM guests
        WHERE status = ? AND qr_code_token <> '' AND qr_code_token NOT LIKE ?
          AND email IS NOT NULL AND email <> ''`
    args := []any{string(model.StatusAccepted), placeholderLike}
    if eventID != "" {
        q += ` AND event_id = ?`
        args = append(args, eventID)
    }
    q += ` ORDER BY created_at ASC`

    rows, err := s.q.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Guest
    for rows.Next() {
        g, err := scanGuest(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *g)
    }
    return out, rows.Err()
}
