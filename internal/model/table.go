package model

import "time"

// Table is a seating table of an event.  Occupancy is never stored; it is
// derived from the party sizes of the guests referencing the table.
type Table struct {
    ID        string    `json:"id"`        // tables.id
    EventID   string    `json:"eventId"`   // tables.event_id
    Number    int       `json:"number"`    // tables.number (unique per event)
    Capacity  int       `json:"capacity"`  // tables.capacity (> 0)
    CreatedAt time.Time `json:"createdAt"` // tables.created_at
}

// TableOccupancy is a table together with its current seat usage.
type TableOccupancy struct {
    ID        string `json:"id"`
    Number    int    `json:"number"`
    Capacity  int    `json:"capacity"`
    SeatsUsed int    `json:"seatsUsed"`
}

// WithSeats pairs t with a seat count.
func (t Table) WithSeats(used int) TableOccupancy {
    return TableOccupancy{ID: t.ID, Number: t.Number, Capacity: t.Capacity, SeatsUsed: used}
}
