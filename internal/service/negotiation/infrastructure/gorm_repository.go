// internal/service/negotiation/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"haggle/internal/service/negotiation/domain"
)

var (
	errOfferNotFound   = domain.NotFound("offer not found")
	errProductNotFound = domain.NotFound("product not found")
)

// GormOfferStore is the transactional OfferStore backed by MySQL. Every
// mutating method runs one gorm transaction: the affected offer and product
// rows are re-read FOR UPDATE and the domain guards re-run against the
// locked state before any write. Racing mutations on the same offer or
// product serialize on the row locks; the loser re-checks against the
// winner's committed state and fails with the appropriate domain error.
type GormOfferStore struct {
	db *gorm.DB
}

func NewGormOfferStore(db *gorm.DB) *GormOfferStore {
	return &GormOfferStore{db: db}
}

func (s *GormOfferStore) GetOffer(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	var model OfferModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOfferNotFound
		}
		return nil, errors.Wrap(err, "load offer")
	}
	return ToDomainOffer(&model), nil
}

func (s *GormOfferStore) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var model ProductModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errProductNotFound
		}
		return nil, errors.Wrap(err, "load product")
	}
	return ToDomainProduct(&model), nil
}

func (s *GormOfferStore) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Offer, error) {
	return s.list(ctx, "buyer_id = ?", buyerID.String())
}

func (s *GormOfferStore) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Offer, error) {
	return s.list(ctx, "seller_id = ?", sellerID.String())
}

func (s *GormOfferStore) list(ctx context.Context, query string, arg string) ([]domain.Offer, error) {
	var models []OfferModel
	err := s.db.WithContext(ctx).
		Where(query, arg).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list offers")
	}
	offers := make([]domain.Offer, 0, len(models))
	for i := range models {
		offers = append(offers, *ToDomainOffer(&models[i]))
	}
	return offers, nil
}

// Chain walks parent links up to the root, then follows children back down,
// returning the negotiation oldest first. Chains are short (one hop per
// counter), so the per-hop queries are fine.
func (s *GormOfferStore) Chain(ctx context.Context, offerID uuid.UUID) ([]domain.Offer, error) {
	offer, err := s.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	root := offer
	for root.ParentOfferID != nil {
		parent, err := s.GetOffer(ctx, *root.ParentOfferID)
		if err != nil {
			return nil, err
		}
		root = parent
	}

	chain := []domain.Offer{*root}
	cur := root
	for {
		var model OfferModel
		err := s.db.WithContext(ctx).First(&model, "parent_offer_id = ?", cur.ID.String()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chain, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "walk offer chain")
		}
		cur = ToDomainOffer(&model)
		chain = append(chain, *cur)
	}
}

func (s *GormOfferStore) SellerStats(ctx context.Context, sellerID uuid.UUID) (map[domain.OfferStatus]int64, error) {
	var rows []struct {
		Status domain.OfferStatus
		Total  int64
	}
	err := s.db.WithContext(ctx).
		Model(&OfferModel{}).
		Select("status, COUNT(*) AS total").
		Where("seller_id = ?", sellerID.String()).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "seller stats")
	}
	stats := make(map[domain.OfferStatus]int64, len(rows))
	for _, row := range rows {
		stats[row.Status] = row.Total
	}
	return stats, nil
}

func (s *GormOfferStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := s.db.WithContext(ctx).Create(FromDomainProduct(product)).Error; err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// CreateOffer inserts a pending offer. The product row lock serializes all
// offer creation on a product, which is what makes the duplicate-active
// check race-free without a partial unique index.
func (s *GormOfferStore) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := lockProduct(tx, offer.ProductID)
		if err != nil {
			return err
		}
		if product.Status != domain.ProductActive {
			return domain.BadRequest("product is no longer active")
		}
		if offer.BuyerID == product.SellerID {
			return domain.BadRequest("cannot make an offer on your own product")
		}
		// The seller binds at creation time to the product's current seller.
		offer.SellerID = product.SellerID

		var active int64
		err = tx.Model(&OfferModel{}).
			Where("buyer_id = ? AND product_id = ? AND status IN ?",
				offer.BuyerID.String(), offer.ProductID.String(), domain.ActiveStatuses).
			Count(&active).Error
		if err != nil {
			return errors.Wrap(err, "count active offers")
		}
		if active > 0 {
			return domain.Conflict("an active offer on this product already exists")
		}

		if err := tx.Create(FromDomainOffer(offer)).Error; err != nil {
			return errors.Wrap(err, "insert offer")
		}
		return nil
	})
}

// AcceptOffer commits the acceptance, the SOLD transition and the sibling
// sweep as one unit. The sweep is a single bulk UPDATE scoped by product, so
// no reader ever sees the product SOLD while a sibling is still active.
func (s *GormOfferStore) AcceptOffer(ctx context.Context, offerID, actorID uuid.UUID, now time.Time) (*domain.AcceptOutcome, error) {
	var out *domain.AcceptOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, offerID)
		if err != nil {
			return err
		}
		product, err := lockProduct(tx, offer.ProductID)
		if err != nil {
			return err
		}

		if err := offer.Accept(product, actorID, now); err != nil {
			return err
		}
		if err := product.MarkSold(now); err != nil {
			return err
		}

		if err := saveOfferTransition(tx, offer); err != nil {
			return err
		}
		err = tx.Model(&ProductModel{}).
			Where("id = ?", product.ID.String()).
			Updates(map[string]interface{}{
				"status":     product.Status,
				"updated_at": now,
			}).Error
		if err != nil {
			return errors.Wrap(err, "update product status")
		}

		sweep := tx.Model(&OfferModel{}).
			Where("product_id = ? AND id <> ? AND status IN ?",
				offer.ProductID.String(), offer.ID.String(), domain.ActiveStatuses).
			Updates(map[string]interface{}{
				"status":       domain.StatusRejected,
				"responded_at": now,
			})
		if sweep.Error != nil {
			return errors.Wrap(sweep.Error, "reject sibling offers")
		}

		out = &domain.AcceptOutcome{
			Offer:            offer,
			Product:          product,
			SiblingsRejected: sweep.RowsAffected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormOfferStore) RejectOffer(ctx context.Context, offerID, actorID uuid.UUID, reason string, now time.Time) (*domain.Offer, error) {
	var rejected *domain.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, offerID)
		if err != nil {
			return err
		}
		if err := offer.Reject(actorID, reason, now); err != nil {
			return err
		}
		if err := saveOfferTransition(tx, offer); err != nil {
			return err
		}
		rejected = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (s *GormOfferStore) CounterOffer(ctx context.Context, offerID, actorID uuid.UUID, amount float64, message string, now time.Time) (*domain.CounterOutcome, error) {
	var out *domain.CounterOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, offerID)
		if err != nil {
			return err
		}
		product, err := lockProduct(tx, offer.ProductID)
		if err != nil {
			return err
		}

		child, err := offer.Counter(product, actorID, amount, message, now)
		if err != nil {
			return err
		}

		if err := saveOfferTransition(tx, offer); err != nil {
			return err
		}
		if err := tx.Create(FromDomainOffer(child)).Error; err != nil {
			return errors.Wrap(err, "insert counter offer")
		}

		out = &domain.CounterOutcome{Parent: offer, Child: child}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormOfferStore) CancelOffer(ctx context.Context, offerID, actorID uuid.UUID, now time.Time) (*domain.Offer, error) {
	var cancelled *domain.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := lockOffer(tx, offerID)
		if err != nil {
			return err
		}
		if err := offer.Cancel(actorID, now); err != nil {
			return err
		}
		if err := saveOfferTransition(tx, offer); err != nil {
			return err
		}
		cancelled = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// lockOffer re-reads an offer FOR UPDATE inside tx.
func lockOffer(tx *gorm.DB, id uuid.UUID) (*domain.Offer, error) {
	var model OfferModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOfferNotFound
		}
		return nil, errors.Wrap(err, "lock offer")
	}
	return ToDomainOffer(&model), nil
}

// lockProduct re-reads a product FOR UPDATE inside tx.
func lockProduct(tx *gorm.DB, id uuid.UUID) (*domain.Product, error) {
	var model ProductModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errProductNotFound
		}
		return nil, errors.Wrap(err, "lock product")
	}
	return ToDomainProduct(&model), nil
}

// saveOfferTransition persists the mutable columns of a transitioned offer.
func saveOfferTransition(tx *gorm.DB, offer *domain.Offer) error {
	updates := map[string]interface{}{
		"status":  offer.Status,
		"message": offer.Message,
	}
	if offer.RespondedAt != nil {
		updates["responded_at"] = *offer.RespondedAt
	}
	err := tx.Model(&OfferModel{}).
		Where("id = ?", offer.ID.String()).
		Updates(updates).Error
	if err != nil {
		return errors.Wrap(err, "update offer status")
	}
	return nil
}
