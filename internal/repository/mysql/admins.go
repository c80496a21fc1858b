package mysql

import (
    "context"
    "database/sql"

    "github.com/digivite/digivite/internal/model"
)

const adminCols = `id, email, name, password, created_at`

func scanAdmin(r rowScanner) (*model.Admin, error) {
    var (
        a    model.Admin
        name sql.NullString
    )
    if err := r.Scan(&a.ID, &a.Email, &name, &a.PasswordHash, &a.CreatedAt); err != nil {
        return nil, err
    }
    a.Name = stringPtr(name)
    return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
    const q = `INSERT INTO admins (` + adminCols + `) VALUES (?, ?, ?, ?, ?)`
    _, err := s.q.ExecContext(ctx, q, a.ID, a.Email, nullString(a.Name), a.PasswordHash, a.CreatedAt.UTC())
    return mapErr(err, "admin")
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
    const q = `SELECT ` + adminCols + ` FROM admins WHERE email = ?`
    a, err := scanAdmin(s.q.QueryRowContext(ctx, q, email))
    return a, mapErr(err, "admin")
}

func (s *Store) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
    const q = `SELECT ` + adminCols + ` FROM admins WHERE id = ?`
    a, err := scanAdmin(s.q.QueryRowContext(ctx, q, id))
    return a, mapErr(err, "admin")
}
