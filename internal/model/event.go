package model

import "time"

// Event is a single celebration (wedding, party) that guests are invited to.
// Events belong to the admin who created them; AdminID is empty for seeded
// events that nobody has claimed.
type Event struct {
    ID        string    `json:"id"`        // events.id (uuid)
    Slug      string    `json:"slug"`      // events.slug (unique)
    Title     string    `json:"title"`     // events.title
    Date      time.Time `json:"date"`      // events.date
    Venue     *string   `json:"venue"`     // events.venue (nullable)
    AdminID   string    `json:"adminId"`   // events.admin_id ('' when unowned)
    CreatedAt time.Time `json:"createdAt"` // events.created_at
}

// OwnedBy reports whether adminID may act on the event.  Unowned events are
// open to every authenticated admin.
func (e Event) OwnedBy(adminID string) bool {
    return e.AdminID == "" || e.AdminID == adminID
}
