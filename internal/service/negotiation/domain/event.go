// internal/service/negotiation/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType names the negotiation events pushed to counterparties.
type NotificationType string

const (
	NotificationOfferReceived NotificationType = "OFFER_RECEIVED"
	NotificationOfferAccepted NotificationType = "OFFER_ACCEPTED"
	NotificationOfferRejected NotificationType = "OFFER_REJECTED"
	NotificationOfferCounter  NotificationType = "OFFER_COUNTER"
)

// NotificationEvent is the payload handed to the notification side channel.
// Delivery is best effort; the negotiation never depends on it.
type NotificationEvent struct {
	Type          NotificationType `json:"type"`
	RecipientID   uuid.UUID        `json:"recipient_id"`
	CounterpartID uuid.UUID        `json:"counterpart_id"`
	OfferID       uuid.UUID        `json:"offer_id"`
	ProductID     uuid.UUID        `json:"product_id"`
	Amount        float64          `json:"amount"`
	Message       string           `json:"message,omitempty"`
}

// ActivityEntry is one row of the negotiation audit trail, recorded
// best-effort after each committed mutation.
type ActivityEntry struct {
	OfferID   uuid.UUID `bson:"offer_id"`
	ProductID uuid.UUID `bson:"product_id"`
	ActorID   uuid.UUID `bson:"actor_id"`
	Action    string    `bson:"action"`
	Amount    float64   `bson:"amount"`
	At        time.Time `bson:"at"`
}
