// Package booking implements the capacity resolver and the transactional
// write path for reservations.  Business-rule rejections are modelled as
// one typed error, Rejection, whose code enumerates every displayable
// failure; callers branch on the code instead of parsing messages.
package booking

import (
	"errors"
	"fmt"
)

// ReasonCode identifies why a booking attempt was refused.
type ReasonCode string

const (
	// CodeFormError covers malformed or missing input fields; the
	// Fields map carries per-field messages and resubmission fixes it.
	CodeFormError ReasonCode = "FORM_ERROR"
	// CodeNoMatchingSlot means the requested time falls outside every
	// active slot window.
	CodeNoMatchingSlot ReasonCode = "NO_MATCHING_SLOT"
	// CodeDayClosed means the whole calendar day is closed.
	CodeDayClosed ReasonCode = "DAY_CLOSED"
	// CodeSlotClosed means the matched slot is closed on that day.
	CodeSlotClosed ReasonCode = "SLOT_CLOSED"
	// CodeSlotFull means the party does not fit into the remaining
	// seats; Remaining carries how many are left.
	CodeSlotFull ReasonCode = "SLOT_FULL"
	// CodeFirstBookingExceeds is reported instead of SLOT_FULL when the
	// very first booking for a (date, slot) already exceeds the
	// effective capacity on its own.  The distinction matters: it
	// signals a configuration problem rather than contention, and the
	// displayed message differs.
	CodeFirstBookingExceeds ReasonCode = "FIRST_BOOKING_EXCEEDS"
	// CodeEditWindowClosed means the self-service edit window for the
	// reservation has passed.  A normal, displayable state, not a
	// fault.
	CodeEditWindowClosed ReasonCode = "EDIT_WINDOW_CLOSED"
)

// Rejection is the structured outcome of a refused booking attempt.  It
// satisfies error so it can travel through the usual return path, and it
// carries everything a caller needs to render the refusal: a machine
// code, a human title/text pair and, for capacity refusals, the number
// of seats still available.
type Rejection struct {
	Code      ReasonCode          `json:"code"`
	Title     string              `json:"title"`
	Text      string              `json:"text"`
	Remaining int                 `json:"remaining,omitempty"`
	Fields    map[string][]string `json:"fields,omitempty"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("booking rejected: %s", r.Code)
}

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func formError(fields map[string][]string, title, text string) *Rejection {
	return &Rejection{Code: CodeFormError, Title: title, Text: text, Fields: fields}
}

// NewFormRejection builds a FORM_ERROR rejection from per-field
// messages, for callers that detect input problems before the engine.
func NewFormRejection(fields map[string][]string) *Rejection {
	return formError(fields, "Reservation not possible", "Please check the highlighted fields.")
}
