package model

import "time"

// Reservation is one confirmed table booking.  The slot reference is
// resolved from the requested time at write time and is immutable in the
// sense that capacity accounting always goes through it; the raw Time is
// informational only.  Reservations are the source of truth for seats
// consumed per (date, slot).
//
// Fields:
//  ID        – primary key identifier.
//  Reference – public UUID handed to the customer in emails.
//  Name      – customer name.
//  Email     – customer email, lower-cased.
//  Phone     – customer phone number.
//  Date      – reservation calendar date.
//  SlotID    – resolved time slot; protected from slot deletion.
//  Time      – requested wall-clock time within the slot.
//  PartySize – number of seats consumed, at least 1.
//  Message   – free-text note from the customer.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	Reference string    // reservations.reference
	Name      string    // reservations.name
	Email     string    // reservations.email
	Phone     string    // reservations.phone
	Date      time.Time // reservations.date
	SlotID    uint64    // reservations.slot_id
	Time      Clock     // reservations.time
	PartySize int       // reservations.party_size
	Message   string    // reservations.message
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}

// DateKey returns the date in the canonical YYYY-MM-DD form used for
// allocation keys and cache keys.
func (r Reservation) DateKey() string { return r.Date.Format("2006-01-02") }
