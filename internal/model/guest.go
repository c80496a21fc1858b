package model

import (
    "strings"
    "time"
)

// GuestStatus is the RSVP state of a guest.
type GuestStatus string

const (
    StatusPending  GuestStatus = "PENDING"
    StatusAccepted GuestStatus = "ACCEPTED"
    StatusDeclined GuestStatus = "DECLINED"
)

// Statuses lists every status in display order.
var Statuses = []GuestStatus{StatusPending, StatusAccepted, StatusDeclined}

// PlaceholderTokenPrefix marks a qr_code_token that has not been issued yet.
const PlaceholderTokenPrefix = "pending_"

// Guest mirrors the guests table.
//
// Fields:
//  Slug           – unique routing key of the personal invitation link.
//  QRCodeToken    – placeholder until the first RSVP, then "q_" + 32 hex chars.
//  NumberOfGuests – party size, the number of seats the guest takes (>= 1).
//  TableID        – nil until an admin assigns a table.
//  RSVPAt         – time of the first successful RSVP.
type Guest struct {
    ID             string      `json:"id"`
    EventID        string      `json:"eventId"`
    FullName       string      `json:"fullName"`
    Email          *string     `json:"email"`
    Phone          *string     `json:"phone"`
    Status         GuestStatus `json:"status"`
    NumberOfGuests int         `json:"numberOfGuests"`
    QRCodeToken    string      `json:"qrCodeToken"`
    Slug           string      `json:"slug"`
    CheckedIn      bool        `json:"checkedIn"`
    CheckInTime    *time.Time  `json:"checkInTime"`
    TableID        *string     `json:"tableId"`
    GiftSent       bool        `json:"giftSent"`
    RSVPAt         *time.Time  `json:"rsvpAt"`
    CreatedAt      time.Time   `json:"createdAt"`
    UpdatedAt      time.Time   `json:"updatedAt"`
}

// IsPlaceholderToken reports whether tok is a not-yet-issued token.
func IsPlaceholderToken(tok string) bool {
    return tok == "" || strings.HasPrefix(tok, PlaceholderTokenPrefix)
}

// HasResponded reports whether the guest already went through RSVP.
func (g Guest) HasResponded() bool {
    return !IsPlaceholderToken(g.QRCodeToken) || g.RSVPAt != nil
}

// AtTable reports whether the guest currently references tableID.
func (g Guest) AtTable(tableID string) bool {
    return g.TableID != nil && *g.TableID == tableID
}

// GuestProjection is the public view returned by the check-in scanner.
type GuestProjection struct {
    ID             string      `json:"id"`
    FullName       string      `json:"fullName"`
    Email          *string     `json:"email"`
    Phone          *string     `json:"phone"`
    Status         GuestStatus `json:"status"`
    NumberOfGuests int         `json:"numberOfGuests"`
    EventID        string      `json:"eventId"`
    TableID        *string     `json:"tableId"`
    CheckedIn      bool        `json:"checkedIn"`
    Slug           string      `json:"slug"`
}

// Projection builds the scanner view of g.
func (g Guest) Projection() GuestProjection {
    return GuestProjection{
        ID:             g.ID,
        FullName:       g.FullName,
        Email:          g.Email,
        Phone:          g.Phone,
        Status:         g.Status,
        NumberOfGuests: g.NumberOfGuests,
        EventID:        g.EventID,
        TableID:        g.TableID,
        CheckedIn:      g.CheckedIn,
        Slug:           g.Slug,
    }
}

// GuestSummary is one row of the admin status dashboard.
type GuestSummary struct {
    ID             string      `json:"id"`
    FullName       string      `json:"fullName"`
    Email          *string     `json:"email"`
    Phone          *string     `json:"phone"`
    NumberOfGuests int         `json:"numberOfGuests"`
    TableNumber    *int        `json:"tableNumber"`
    CheckedIn      bool        `json:"checkedIn"`
    CheckInTime    *time.Time  `json:"checkInTime"`
    Status         GuestStatus `json:"status"`
    GiftSent       bool        `json:"giftSent"`
    Gifts          []Gift      `json:"gifts"`
    CreatedAt      time.Time   `json:"-"`
}

// CheckedInGuest is one row of the checked-in search.
type CheckedInGuest struct {
    ID             string     `json:"id"`
    FullName       string     `json:"fullName"`
    Phone          *string    `json:"phone"`
    Email          *string    `json:"email"`
    NumberOfGuests int        `json:"numberOfGuests"`
    TableID        *string    `json:"tableId"`
    TableNumber    *int       `json:"tableNumber"`
    CheckInTime    *time.Time `json:"checkInTime"`
    CreatedAt      time.Time  `json:"createdAt"`
}

// GuestListItem is the short form used by the admin guest list.
type GuestListItem struct {
    ID        string    `json:"id"`
    FullName  string    `json:"fullName"`
    Slug      string    `json:"slug"`
    Email     *string   `json:"email"`
    Phone     *string   `json:"phone"`
    CreatedAt time.Time `json:"createdAt"`
}
