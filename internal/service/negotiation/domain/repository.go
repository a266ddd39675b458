// internal/service/negotiation/domain/repository.go
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AcceptOutcome is everything a committed acceptance changed: the accepted
// offer, the product it sold, and how many sibling offers were swept to
// REJECTED in the same transaction.
type AcceptOutcome struct {
	Offer            *Offer
	Product          *Product
	SiblingsRejected int64
}

// CounterOutcome pairs the frozen parent with its freshly spawned child.
type CounterOutcome struct {
	Parent *Offer
	Child  *Offer
}

// OfferStore is the transactional persistence boundary. Every mutating
// method is one atomic unit of work: it re-reads the affected rows under a
// row lock, re-runs the domain guards against the current state, applies all
// writes, and commits, or rolls everything back. Two racing mutations on
// the same offer or product serialize on the row lock; the loser's re-check
// surfaces the usual domain error instead of corrupting state.
type OfferStore interface {
	GetOffer(ctx context.Context, id uuid.UUID) (*Offer, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// ListByBuyer and ListBySeller return a user's offers, newest first.
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Offer, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]Offer, error)

	// Chain returns the whole negotiation an offer belongs to, root first.
	Chain(ctx context.Context, offerID uuid.UUID) ([]Offer, error)

	// SellerStats counts a seller's offers grouped by status.
	SellerStats(ctx context.Context, sellerID uuid.UUID) (map[OfferStatus]int64, error)

	// CreateProduct registers a listing as available for offers.
	CreateProduct(ctx context.Context, product *Product) error

	// CreateOffer persists a new pending offer. Inside the transaction the
	// product is re-checked to exist and be ACTIVE, and the single-active-
	// offer-per-(buyer, product) invariant is enforced (Conflict on
	// violation).
	CreateOffer(ctx context.Context, offer *Offer) error

	// AcceptOffer atomically accepts the offer, marks the product SOLD and
	// rejects every other active offer on the product.
	AcceptOffer(ctx context.Context, offerID, actorID uuid.UUID, now time.Time) (*AcceptOutcome, error)

	// RejectOffer atomically rejects the offer, storing reason as the
	// message when non-empty.
	RejectOffer(ctx context.Context, offerID, actorID uuid.UUID, reason string, now time.Time) (*Offer, error)

	// CounterOffer atomically freezes the parent and creates its child.
	CounterOffer(ctx context.Context, offerID, actorID uuid.UUID, amount float64, message string, now time.Time) (*CounterOutcome, error)

	// CancelOffer atomically cancels the buyer's own offer.
	CancelOffer(ctx context.Context, offerID, actorID uuid.UUID, now time.Time) (*Offer, error)
}
