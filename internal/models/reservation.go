package models

import (
	"encoding/json"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// RawReservation is a reservation as the API sends it. Event is either the
// event id or the populated event object.
type RawReservation struct {
	ID        string          `json:"_id"`
	Event     json.RawMessage `json:"event"`
	User      string          `json:"user"`
	Status    string          `json:"status"`
	Seats     int             `json:"seats"`
	CreatedAt string          `json:"createdAt"`
}

// Reservation is a normalized RSVP
type Reservation struct {
	ID      string            `json:"id"`
	EventID string            `json:"eventId"`
	Event   *Event            `json:"event,omitempty"`
	Status  ReservationStatus `json:"status"`
	Seats   int               `json:"seats"`
	Created time.Time         `json:"created"`
}

// Active reports whether the reservation still holds seats
func (r Reservation) Active() bool {
	return r.Status != ReservationCancelled
}
