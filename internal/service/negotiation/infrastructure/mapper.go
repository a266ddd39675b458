// internal/service/negotiation/infrastructure/mapper.go
package infrastructure

import (
	"database/sql"

	"github.com/google/uuid"

	"haggle/internal/service/negotiation/domain"
)

// ToDomainOffer converts a database row into the domain entity.
func ToDomainOffer(model *OfferModel) *domain.Offer {
	if model == nil {
		return nil
	}
	offer := &domain.Offer{
		ID:        uuid.MustParse(model.ID),
		ProductID: uuid.MustParse(model.ProductID),
		BuyerID:   uuid.MustParse(model.BuyerID),
		SellerID:  uuid.MustParse(model.SellerID),
		Amount:    model.Amount,
		Message:   model.Message,
		Status:    model.Status,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
	}
	if model.ParentOfferID.Valid {
		parentID := uuid.MustParse(model.ParentOfferID.String)
		offer.ParentOfferID = &parentID
	}
	if model.RespondedAt.Valid {
		t := model.RespondedAt.Time
		offer.RespondedAt = &t
	}
	return offer
}

// FromDomainOffer converts the domain entity into its database row.
func FromDomainOffer(offer *domain.Offer) *OfferModel {
	if offer == nil {
		return nil
	}
	model := &OfferModel{
		ID:        offer.ID.String(),
		ProductID: offer.ProductID.String(),
		BuyerID:   offer.BuyerID.String(),
		SellerID:  offer.SellerID.String(),
		Amount:    offer.Amount,
		Message:   offer.Message,
		Status:    offer.Status,
		ExpiresAt: offer.ExpiresAt,
		CreatedAt: offer.CreatedAt,
	}
	if offer.ParentOfferID != nil {
		model.ParentOfferID = sql.NullString{String: offer.ParentOfferID.String(), Valid: true}
	}
	if offer.RespondedAt != nil {
		model.RespondedAt = sql.NullTime{Time: *offer.RespondedAt, Valid: true}
	}
	return model
}

// ToDomainProduct converts a product row into the domain entity.
func ToDomainProduct(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}
	return &domain.Product{
		ID:        uuid.MustParse(model.ID),
		SellerID:  uuid.MustParse(model.SellerID),
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// FromDomainProduct converts the domain entity into its database row.
func FromDomainProduct(product *domain.Product) *ProductModel {
	if product == nil {
		return nil
	}
	return &ProductModel{
		ID:        product.ID.String(),
		SellerID:  product.SellerID.String(),
		Status:    product.Status,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}
