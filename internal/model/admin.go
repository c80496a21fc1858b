package model

import "time"

// Admin represents an event organiser account.  PasswordHash is a bcrypt
// digest; bcrypt embeds its own salt so no separate salt column is kept.
type Admin struct {
    ID           string    // admins.id
    Email        string    // admins.email (unique, lower-cased)
    Name         *string   // admins.name (nullable)
    PasswordHash string    // admins.password
    CreatedAt    time.Time // admins.created_at
}

// AdminView is the JSON shape returned to clients; it never carries the hash.
type AdminView struct {
    ID    string  `json:"id"`
    Email string  `json:"email"`
    Name  *string `json:"name"`
}

// View strips the credential fields from a.
func (a Admin) View() AdminView {
    return AdminView{ID: a.ID, Email: a.Email, Name: a.Name}
}
