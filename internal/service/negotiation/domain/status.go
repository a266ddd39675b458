// internal/service/negotiation/domain/status.go
package domain

// OfferStatus is the lifecycle state of an offer.
type OfferStatus string

const (
	StatusPending        OfferStatus = "PENDING"         // awaiting a seller response
	StatusCounterOffered OfferStatus = "COUNTER_OFFERED" // frozen; superseded by a child counter-offer
	StatusAccepted       OfferStatus = "ACCEPTED"        // terminal
	StatusRejected       OfferStatus = "REJECTED"        // terminal
	StatusCancelled      OfferStatus = "CANCELLED"       // terminal
)

// ActiveStatuses are the statuses an offer can still progress from.
var ActiveStatuses = []OfferStatus{StatusPending, StatusCounterOffered}

// Active reports whether the status still participates in a negotiation.
func (s OfferStatus) Active() bool {
	return s == StatusPending || s == StatusCounterOffered
}

// Terminal reports whether no further transition is permitted.
func (s OfferStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// ProductStatus is the listing state of a product.
type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductSold     ProductStatus = "SOLD"
	ProductInactive ProductStatus = "INACTIVE"
)
