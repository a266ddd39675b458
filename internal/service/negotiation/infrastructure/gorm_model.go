// internal/service/negotiation/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"

	"haggle/internal/service/negotiation/domain"
)

// OfferModel maps the offers table.
type OfferModel struct {
	ID            string             `gorm:"type:char(36);primaryKey"`
	ProductID     string             `gorm:"type:char(36);index:idx_offers_product;index:idx_offers_buyer_product,priority:2"`
	BuyerID       string             `gorm:"type:char(36);index:idx_offers_buyer_product,priority:1"`
	SellerID      string             `gorm:"type:char(36);index:idx_offers_seller"`
	Amount        float64            `gorm:"type:decimal(10,2)"`
	Message       string             `gorm:"type:text"`
	Status        domain.OfferStatus `gorm:"type:varchar(20);index"`
	ParentOfferID sql.NullString     `gorm:"type:char(36)"`
	ExpiresAt     time.Time
	CreatedAt     time.Time
	RespondedAt   sql.NullTime
}

func (OfferModel) TableName() string {
	return "offers"
}

// ProductModel maps the products table. Only the columns the negotiation
// transacts on live here; the full catalog record belongs to another system.
type ProductModel struct {
	ID        string               `gorm:"type:char(36);primaryKey"`
	SellerID  string               `gorm:"type:char(36);index"`
	Status    domain.ProductStatus `gorm:"type:varchar(20)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductModel) TableName() string {
	return "products"
}
