package model

// TimeSlot is a named, capacity-bounded window of the day within which
// reservations are grouped for seat accounting (e.g. Lunch 12:00–16:00,
// Dinner 16:00–22:00).  Slots are operator-configured; deactivating or
// deleting a slot never touches existing reservations, which reference
// the slot row by id and are protected at the database level.
//
// Fields:
//  ID        – primary key identifier.
//  Slug      – unique short name ("lunch", "dinner").
//  Label     – display label.
//  Start     – first minute of the window (inclusive).
//  End       – minute the window ends (exclusive).  End may be
//              numerically smaller than Start, denoting a window that
//              wraps past midnight (22:00–02:00).
//  Capacity  – seats available absent per-day overrides.
//  IsActive  – inactive slots never match a requested time.
//  SortOrder – resolution and display order; lower first.
type TimeSlot struct {
	ID        uint64 // time_slots.id
	Slug      string // time_slots.slug
	Label     string // time_slots.label
	Start     Clock  // time_slots.start_time
	End       Clock  // time_slots.end_time
	Capacity  int    // time_slots.capacity
	IsActive  bool   // time_slots.is_active
	SortOrder int    // time_slots.sort_order
}

// Contains reports whether the wall-clock time t falls inside the slot
// window.  The start is inclusive and the end exclusive; for a window
// that wraps past midnight the check becomes t >= Start OR t < End, so
// a 22:00–02:00 slot contains 23:30 and 01:00 but not 10:00.
func (s TimeSlot) Contains(t Clock) bool {
	if s.Start <= s.End {
		return s.Start <= t && t < s.End
	}
	return t >= s.Start || t < s.End
}
