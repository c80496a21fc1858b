package mysql

import (
    "context"
    "database/sql"
    "strings"

    "github.com/digivite/digivite/internal/model"
    "github.com/digivite/digivite/internal/service"
)

func (s *Store) CreateGift(ctx context.Context, g *model.Gift) error {
    const q = `INSERT INTO gifts (id, event_id, guest_id, amount, note, provider, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
    var amount sql.NullFloat64
    if g.Amount != nil {
        amount = sql.NullFloat64{Float64: *g.Amount, Valid: true}
    }
    _, err := s.q.ExecContext(ctx, q, g.ID, g.EventID, g.GuestID, amount, nullString(g.Note), nullString(g.Provider), g.CreatedAt.UTC())
    return mapErr(err, "gift")
}

func (s *Store) CountGuestsByStatus(ctx context.Context, eventID string) (map[model.GuestStatus]int, error) {
    rows, err := s.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM guests WHERE event_id = ? GROUP BY status`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := map[model.GuestStatus]int{}
    for rows.Next() {
        var (
            status string
            n      int
        )
        if err := rows.Scan(&status, &n); err != nil {
            return nil, err
        }
        out[model.GuestStatus(status)] = n
    }
    return out, rows.Err()
}

func (s *Store) ListGuestSummaries(ctx context.Context, eventID string, status model.GuestStatus, limit int) ([]model.GuestSummary, error) {
    const q = `SELECT g.id, g.full_name, g.email, g.phone, g.number_of_guests, t.number,
            g.checked_in, g.check_in_time, g.status, g.gift_sent, g.created_at
        FROM guests g
        LEFT JOIN seating_tables t ON t.id = g.table_id
        WHERE g.event_id = ? AND g.status = ?
        ORDER BY g.created_at DESC
        LIMIT ?`
    rows, err := s.q.QueryContext(ctx, q, eventID, string(status), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := []model.GuestSummary{}
    index := map[string]int{}
    for rows.Next() {
        var (
            gs           model.GuestSummary
            email, phone sql.NullString
            tableNumber  sql.NullInt64
            checkInTime  sql.NullTime
            st           string
        )
        if err := rows.Scan(&gs.ID, &gs.FullName, &email, &phone, &gs.NumberOfGuests, &tableNumber,
            &gs.CheckedIn, &checkInTime, &st, &gs.GiftSent, &gs.CreatedAt); err != nil {
            return nil, err
        }
        gs.Email = stringPtr(email)
        gs.Phone = stringPtr(phone)
        gs.TableNumber = intPtr(tableNumber)
        gs.CheckInTime = timePtr(checkInTime)
        gs.Status = model.GuestStatus(st)
        gs.Gifts = []model.Gift{}
        index[gs.ID] = len(out)
        out = append(out, gs)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(out) == 0 {
        return out, nil
    }
    if err := s.attachGifts(ctx, out, index); err != nil {
        return nil, err
    }
    return out, nil
}

// attachGifts loads the gifts of every summary in one query, newest first.
func (s *Store) attachGifts(ctx context.Context, out []model.GuestSummary, index map[string]int) error {
    args := make([]any, 0, len(out))
    for _, gs := range out {
        args = append(args, gs.ID)
    }
    q := `SELECT id, event_id, guest_id, amount, note, provider, created_at FROM gifts
        WHERE guest_id IN (` + placeholders(len(args)) + `)
        ORDER BY created_at DESC`
    rows, err := s.q.QueryContext(ctx, q, args...)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var (
            g              model.Gift
            amount         sql.NullFloat64
            note, provider sql.NullString
        )
        if err := rows.Scan(&g.ID, &g.EventID, &g.GuestID, &amount, &note, &provider, &g.CreatedAt); err != nil {
            return err
        }
        if amount.Valid {
            v := amount.Float64
            g.Amount = &v
        }
        g.Note = stringPtr(note)
        g.Provider = stringPtr(provider)
        if i, ok := index[g.GuestID]; ok {
            out[i].Gifts = append(out[i].Gifts, g)
        }
    }
    return rows.Err()
}

// SearchCheckedIn counts every match and returns one page ordered by
// check-in time, newest first.
func (s *Store) SearchCheckedIn(ctx context.Context, f service.CheckedInFilter) ([]model.CheckedInGuest, int, error) {
    where := `g.event_id = ? AND g.checked_in = TRUE`
    args := []any{f.EventID}

    var or []string
    if f.Text != "" {
        pattern := "%" + escapeLike(strings.ToLower(f.Text)) + "%"
        if f.MatchName {
            or = append(or, `LOWER(g.full_name) LIKE ?`)
            args = append(args, pattern)
        }
        if f.MatchEmail {
            or = append(or, `LOWER(g.email) LIKE ?`)
            args = append(args, pattern)
        }
    }
    if f.TableNumber != nil {
        or = append(or, `t.number = ?`)
        args = append(args, *f.TableNumber)
    }
    if len(or) > 0 {
        where += ` AND (` + strings.Join(or, ` OR `) + `)`
    }
    from := ` FROM guests g LEFT JOIN seating_tables t ON t.id = g.table_id WHERE ` + where

    var total int
    if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
        return nil, 0, err
    }
    out := []model.CheckedInGuest{}
    if total == 0 {
        return out, 0, nil
    }

    q := `SELECT g.id, g.full_name, g.phone, g.email, g.number_of_guests, g.table_id, t.number,
            g.check_in_time, g.created_at` + from + `
        ORDER BY g.check_in_time DESC, g.created_at DESC
        LIMIT ? OFFSET ?`
    rows, err := s.q.QueryContext(ctx, q, append(args, f.Limit, f.Offset)...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    for rows.Next() {
        var (
            c                     model.CheckedInGuest
            phone, email, tableID sql.NullString
            tableNumber           sql.NullInt64
            checkInTime           sql.NullTime
        )
        if err := rows.Scan(&c.ID, &c.FullName, &phone, &email, &c.NumberOfGuests, &tableID, &tableNumber,
            &checkInTime, &c.CreatedAt); err != nil {
            return nil, 0, err
        }
        c.Phone = stringPtr(phone)
        c.Email = stringPtr(email)
        c.TableID = stringPtr(tableID)
        c.TableNumber = intPtr(tableNumber)
        c.CheckInTime = timePtr(checkInTime)
        out = append(out, c)
    }
    return out, total, rows.Err()
}

func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

func intPtr(n sql.NullInt64) *int {
    if !n.Valid {
        return nil
    }
    v := int(n.Int64)
    return &v
}
