package model

import "time"

// Gift is an append-only record of a gift announced by a guest.
type Gift struct {
    ID        string    `json:"id"`
    EventID   string    `json:"eventId"`
    GuestID   string    `json:"guestId"`
    Amount    *float64  `json:"amount"`
    Note      *string   `json:"note"`
    Provider  *string   `json:"provider"`
    CreatedAt time.Time `json:"createdAt"`
}
