// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation commits.
// It carries enough for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	Reference     string `json:"reference"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Date          string `json:"date"`
	SlotSlug      string `json:"slot_slug"`
	SlotLabel     string `json:"slot_label"`
	Time          string `json:"time"`
	PartySize     int    `json:"party_size"`
	ConfirmedAt   string `json:"confirmed_at"`
}
