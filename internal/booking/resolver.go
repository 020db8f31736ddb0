package booking

import (
	"fmt"
	"time"

	"github.com/anderle/table-reservation/internal/model"
)

// This file is the capacity resolver: pure functions over snapshots of
// the slot catalog, the day overrides and the booking ledger.  Nothing
// here touches the database; the engine feeds it rows it has already
// locked and the availability endpoint feeds it unlocked reads.

// MatchSlot returns the first active slot whose window contains t,
// scanning in sort-order-then-start-time order.  Slots are expected to
// be pre-sorted that way by the repository.  Inactive slots never
// match, so a time covered only by a deactivated window resolves to
// "no slot".
func MatchSlot(slots []model.TimeSlot, t model.Clock) (model.TimeSlot, bool) {
	for _, s := range slots {
		if !s.IsActive {
			continue
		}
		if s.Contains(t) {
			return s, true
		}
	}
	return model.TimeSlot{}, false
}

// EffectiveCapacity combines a slot's base capacity with the overrides
// in force for one date.  A closed day or a closed slot yields zero; a
// seat block is subtracted and the result never goes negative.
func EffectiveCapacity(slot model.TimeSlot, dayClosed bool, block *model.SlotBlock) int {
	if dayClosed {
		return 0
	}
	blocked := 0
	if block != nil {
		if block.IsClosed {
			return 0
		}
		blocked = block.BlockedSeats
	}
	if eff := slot.Capacity - blocked; eff > 0 {
		return eff
	}
	return 0
}

// Remaining derives the seats still bookable from an effective capacity
// and the seats already consumed.  Clamped at zero so over-reduced
// configurations read as "full" rather than negative.
func Remaining(effective, booked int) int {
	if r := effective - booked; r > 0 {
		return r
	}
	return 0
}

// CanEdit reports whether a reservation dated on date may still be
// self-service edited on today, given the configured cutoff: edits are
// allowed while today is at least cutoffDays before the reservation
// date.  Both arguments are reduced to the calendar day of their own
// location before comparing, so "two days out" means two wall-calendar
// days wherever the service runs, not two UTC-epoch day boundaries.
func CanEdit(today, date time.Time, cutoffDays int) bool {
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !t.After(d.AddDate(0, 0, -cutoffDays))
}

// decide applies the ordered capacity preconditions for one attempt
// against an already-locked (date, slot) aggregate.  booked must exclude
// the reservation being edited, if any.  It returns nil when the party
// fits, otherwise the Rejection to surface.
func decide(slot model.TimeSlot, dayClosed bool, block *model.SlotBlock, booked, partySize int) *Rejection {
	if dayClosed {
		return &Rejection{
			Code:  CodeDayClosed,
			Title: "Reservation not possible",
			Text:  "The restaurant is closed on this day.",
		}
	}
	if block != nil && block.IsClosed {
		return &Rejection{
			Code:  CodeSlotClosed,
			Title: "Time not available",
			Text:  "This time window is not available on this day.",
		}
	}
	effective := EffectiveCapacity(slot, dayClosed, block)
	if booked == 0 && partySize > effective {
		return &Rejection{
			Code:  CodeFirstBookingExceeds,
			Title: "Capacity exceeded",
			Text: fmt.Sprintf(
				"This time window offers %d seats in total. You selected %d guests.",
				effective, partySize),
			Remaining: effective,
		}
	}
	if remaining := Remaining(effective, booked); partySize > remaining {
		return &Rejection{
			Code:  CodeSlotFull,
			Title: "Not enough seats available",
			Text: fmt.Sprintf(
				"Only %d seats are still available. You selected %d guests.",
				remaining, partySize),
			Remaining: remaining,
		}
	}
	return nil
}
