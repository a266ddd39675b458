// internal/service/negotiation/domain/product.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is the slice of the catalog the negotiation cares about: who sells
// it and whether it can still be sold. Its status participates in the same
// transaction as offer mutations.
type Product struct {
	ID        uuid.UUID
	SellerID  uuid.UUID
	Status    ProductStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct lists a product as available for offers.
func NewProduct(sellerID uuid.UUID, now time.Time) (*Product, error) {
	if sellerID == uuid.Nil {
		return nil, BadRequest("product seller is required")
	}
	return &Product{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Status:    ProductActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkSold transitions the product to SOLD. Only an active product can sell.
func (p *Product) MarkSold(now time.Time) error {
	if p.Status != ProductActive {
		return BadRequest("product is no longer active")
	}
	p.Status = ProductSold
	p.UpdatedAt = now
	return nil
}
