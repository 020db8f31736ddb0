package model

import "time"

// BlockedDay is an operator-authored exception for one calendar date.
// When IsClosed is set the whole day is unavailable regardless of slot
// configuration.  A day may additionally carry per-slot blocks.
//
// Fields:
//  ID        – primary key identifier.
//  Date      – calendar date, unique per row.
//  Reason    – free-text note shown in the admin UI.
//  IsClosed  – whole-day closure.
//  CreatedAt – creation timestamp.
//  Blocks    – per-slot overrides owned by this day.
type BlockedDay struct {
	ID        uint64      // blocked_days.id
	Date      time.Time   // blocked_days.date
	Reason    string      // blocked_days.reason
	IsClosed  bool        // blocked_days.is_closed
	CreatedAt time.Time   // blocked_days.created_at
	Blocks    []SlotBlock // owned slot_blocks rows
}

// SlotBlock reduces or closes a single slot on a single date.  The
// (day, slot) pair is unique.  BlockedSeats are removed from the slot's
// base capacity for that date; saving a block that would push effective
// capacity below the seats already booked is a validation failure, never
// a silent clamp.
//
// Fields:
//  ID           – primary key identifier.
//  BlockedDayID – owning blocked_days row.
//  SlotID       – slot being restricted.
//  BlockedSeats – seats removed from the slot's capacity that day.
//  IsClosed     – slot fully unavailable that day.
//  Reason       – free-text note.
//  CreatedAt    – creation timestamp.
type SlotBlock struct {
	ID           uint64    // slot_blocks.id
	BlockedDayID uint64    // slot_blocks.blocked_day_id
	SlotID       uint64    // slot_blocks.slot_id
	BlockedSeats int       // slot_blocks.blocked_seats
	IsClosed     bool      // slot_blocks.is_closed
	Reason       string    // slot_blocks.reason
	CreatedAt    time.Time // slot_blocks.created_at
}
