// internal/service/negotiation/domain/offer.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OfferTTL is how long an offer stays acceptable after creation.
const OfferTTL = 7 * 24 * time.Hour

// Offer is the aggregate root of a negotiation. A counter-offer is a new
// Offer linked to its parent through ParentOfferID; the parent freezes at
// COUNTER_OFFERED and only the newest child can progress.
type Offer struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	Amount        float64
	Message       string
	Status        OfferStatus
	ParentOfferID *uuid.UUID
	ExpiresAt     time.Time
	CreatedAt     time.Time
	RespondedAt   *time.Time
}

// NewOffer creates a buyer's opening offer on a product. The seller is bound
// to the product's seller at creation time.
func NewOffer(product *Product, buyerID uuid.UUID, amount float64, message string, now time.Time) (*Offer, error) {
	if product.Status != ProductActive {
		return nil, BadRequest("product is no longer active")
	}
	if buyerID == product.SellerID {
		return nil, BadRequest("cannot make an offer on your own product")
	}
	if amount <= 0 {
		return nil, BadRequest("offer amount must be positive")
	}
	return &Offer{
		ID:        uuid.New(),
		ProductID: product.ID,
		BuyerID:   buyerID,
		SellerID:  product.SellerID,
		Amount:    amount,
		Message:   message,
		Status:    StatusPending,
		ExpiresAt: now.Add(OfferTTL),
		CreatedAt: now,
	}, nil
}

// Active reports whether the offer can still progress.
func (o *Offer) Active() bool {
	return o.Status.Active()
}

// Expired reports whether the offer's acceptance window has passed.
func (o *Offer) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// frozen distinguishes a countered parent from other invalid states so the
// caller gets pointed at the live child instead of a generic status error.
func (o *Offer) sellerActionable() error {
	switch {
	case o.Status == StatusCounterOffered:
		return BadRequest("offer has been countered; act on the latest counter-offer")
	case o.Status != StatusPending:
		return BadRequest("offer is already " + string(o.Status))
	}
	return nil
}

// CanAccept checks every acceptance precondition: the actor must be the
// seller, the offer pending, the product still active, and the offer not past
// its expiry. Expiry is enforced here and only here; reject and cancel stay
// legal on an expired offer.
func (o *Offer) CanAccept(product *Product, actorID uuid.UUID, now time.Time) error {
	if actorID != o.SellerID {
		return Forbidden("only the seller can accept an offer")
	}
	if err := o.sellerActionable(); err != nil {
		return err
	}
	if product.Status != ProductActive {
		return BadRequest("product is no longer active")
	}
	if o.Expired(now) {
		return BadRequest("offer has expired")
	}
	return nil
}

// Accept applies the acceptance transition after re-running the guards.
func (o *Offer) Accept(product *Product, actorID uuid.UUID, now time.Time) error {
	if err := o.CanAccept(product, actorID, now); err != nil {
		return err
	}
	o.Status = StatusAccepted
	o.RespondedAt = &now
	return nil
}

// CanReject checks rejection preconditions. Rejection is always safe: an
// expired pending offer can still be rejected.
func (o *Offer) CanReject(actorID uuid.UUID) error {
	if actorID != o.SellerID {
		return Forbidden("only the seller can reject an offer")
	}
	return o.sellerActionable()
}

// Reject applies the rejection transition. A non-empty reason overrides the
// stored message so the buyer sees why.
func (o *Offer) Reject(actorID uuid.UUID, reason string, now time.Time) error {
	if err := o.CanReject(actorID); err != nil {
		return err
	}
	o.Status = StatusRejected
	o.RespondedAt = &now
	if reason != "" {
		o.Message = reason
	}
	return nil
}

// CanCounter checks counter-offer preconditions. A frozen parent cannot be
// countered again: the chain progresses only through its newest child.
func (o *Offer) CanCounter(product *Product, actorID uuid.UUID, amount float64) error {
	if actorID != o.SellerID {
		return Forbidden("only the seller can counter an offer")
	}
	if err := o.sellerActionable(); err != nil {
		return err
	}
	if product.Status != ProductActive {
		return BadRequest("product is no longer active")
	}
	if amount <= 0 {
		return BadRequest("counter amount must be positive")
	}
	return nil
}

// Counter freezes this offer and spawns the pending child that continues the
// negotiation. The child keeps the buyer, takes the acting seller, and gets a
// fresh expiry window.
func (o *Offer) Counter(product *Product, actorID uuid.UUID, amount float64, message string, now time.Time) (*Offer, error) {
	if err := o.CanCounter(product, actorID, amount); err != nil {
		return nil, err
	}
	o.Status = StatusCounterOffered
	o.RespondedAt = &now

	parentID := o.ID
	return &Offer{
		ID:            uuid.New(),
		ProductID:     o.ProductID,
		BuyerID:       o.BuyerID,
		SellerID:      actorID,
		Amount:        amount,
		Message:       message,
		Status:        StatusPending,
		ParentOfferID: &parentID,
		ExpiresAt:     now.Add(OfferTTL),
		CreatedAt:     now,
	}, nil
}

// CanCancel checks cancellation preconditions: only the offer's buyer may
// cancel, and only while the offer is active. A frozen parent is still
// cancellable, which retires its whole chain from the buyer's side.
func (o *Offer) CanCancel(actorID uuid.UUID) error {
	if actorID != o.BuyerID {
		return Forbidden("only the buyer can cancel an offer")
	}
	if !o.Active() {
		return BadRequest("offer is already " + string(o.Status))
	}
	return nil
}

// Cancel applies the cancellation transition.
func (o *Offer) Cancel(actorID uuid.UUID, now time.Time) error {
	if err := o.CanCancel(actorID); err != nil {
		return err
	}
	o.Status = StatusCancelled
	o.RespondedAt = &now
	return nil
}
