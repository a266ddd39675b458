// internal/service/negotiation/mock/store.go
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"haggle/internal/service/negotiation/domain"
)

// OfferStore is an in-memory domain.OfferStore for tests. A single mutex
// stands in for the database's row locking: every mutation re-runs the
// domain guards against current state under the lock, exactly like the SQL
// implementation does inside its transaction.
type OfferStore struct {
	mu       sync.Mutex
	offers   map[uuid.UUID]*domain.Offer
	products map[uuid.UUID]*domain.Product

	// Err, when set, is returned by every operation. Simulates the store
	// being unavailable.
	Err error
}

func NewOfferStore() *OfferStore {
	return &OfferStore{
		offers:   make(map[uuid.UUID]*domain.Offer),
		products: make(map[uuid.UUID]*domain.Product),
	}
}

// SeedProduct inserts a product directly, bypassing guards.
func (s *OfferStore) SeedProduct(p *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
}

// SeedOffer inserts an offer directly, bypassing guards.
func (s *OfferStore) SeedOffer(o *domain.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.offers[o.ID] = &cp
}

func (s *OfferStore) GetOffer(_ context.Context, id uuid.UUID) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.offerLocked(id)
}

func (s *OfferStore) GetProduct(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.productLocked(id)
}

func (s *OfferStore) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]domain.Offer, error) {
	return s.list(func(o *domain.Offer) bool { return o.BuyerID == buyerID })
}

func (s *OfferStore) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]domain.Offer, error) {
	return s.list(func(o *domain.Offer) bool { return o.SellerID == sellerID })
}

func (s *OfferStore) list(match func(*domain.Offer) bool) ([]domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []domain.Offer
	for _, o := range s.offers {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *OfferStore) Chain(_ context.Context, offerID uuid.UUID) ([]domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	root, err := s.offerLocked(offerID)
	if err != nil {
		return nil, err
	}
	for root.ParentOfferID != nil {
		parent, err := s.offerLocked(*root.ParentOfferID)
		if err != nil {
			return nil, err
		}
		root = parent
	}

	chain := []domain.Offer{*root}
	cur := root
	for {
		child := s.childOfLocked(cur.ID)
		if child == nil {
			return chain, nil
		}
		chain = append(chain, *child)
		cur = child
	}
}

func (s *OfferStore) SellerStats(_ context.Context, sellerID uuid.UUID) (map[domain.OfferStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stats := make(map[domain.OfferStatus]int64)
	for _, o := range s.offers {
		if o.SellerID == sellerID {
			stats[o.Status]++
		}
	}
	return stats, nil
}

func (s *OfferStore) CreateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *OfferStore) CreateOffer(_ context.Context, offer *domain.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	product, err := s.productLocked(offer.ProductID)
	if err != nil {
		return err
	}
	if product.Status != domain.ProductActive {
		return domain.BadRequest("product is no longer active")
	}
	if offer.BuyerID == product.SellerID {
		return domain.BadRequest("cannot make an offer on your own product")
	}
	offer.SellerID = product.SellerID
	for _, existing := range s.offers {
		if existing.BuyerID == offer.BuyerID && existing.ProductID == offer.ProductID && existing.Active() {
			return domain.Conflict("an active offer on this product already exists")
		}
	}
	cp := *offer
	s.offers[offer.ID] = &cp
	return nil
}

func (s *OfferStore) AcceptOffer(_ context.Context, offerID, actorID uuid.UUID, now time.Time) (*domain.AcceptOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	offer, err := s.offerLocked(offerID)
	if err != nil {
		return nil, err
	}
	product, err := s.productLocked(offer.ProductID)
	if err != nil {
		return nil, err
	}
	if err := offer.Accept(product, actorID, now); err != nil {
		return nil, err
	}
	if err := product.MarkSold(now); err != nil {
		return nil, err
	}

	var swept int64
	for _, sibling := range s.offers {
		if sibling.ProductID == offer.ProductID && sibling.ID != offer.ID && sibling.Active() {
			sibling.Status = domain.StatusRejected
			t := now
			sibling.RespondedAt = &t
			swept++
		}
	}

	s.offers[offer.ID] = offer
	s.products[product.ID] = product
	oc, pc := *offer, *product
	return &domain.AcceptOutcome{Offer: &oc, Product: &pc, SiblingsRejected: swept}, nil
}

func (s *OfferStore) RejectOffer(_ context.Context, offerID, actorID uuid.UUID, reason string, now time.Time) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	offer, err := s.offerLocked(offerID)
	if err != nil {
		return nil, err
	}
	if err := offer.Reject(actorID, reason, now); err != nil {
		return nil, err
	}
	s.offers[offer.ID] = offer
	cp := *offer
	return &cp, nil
}

func (s *OfferStore) CounterOffer(_ context.Context, offerID, actorID uuid.UUID, amount float64, message string, now time.Time) (*domain.CounterOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	offer, err := s.offerLocked(offerID)
	if err != nil {
		return nil, err
	}
	product, err := s.productLocked(offer.ProductID)
	if err != nil {
		return nil, err
	}
	child, err := offer.Counter(product, actorID, amount, message, now)
	if err != nil {
		return nil, err
	}
	s.offers[offer.ID] = offer
	childCp := *child
	s.offers[child.ID] = &childCp
	pc, cc := *offer, *child
	return &domain.CounterOutcome{Parent: &pc, Child: &cc}, nil
}

func (s *OfferStore) CancelOffer(_ context.Context, offerID, actorID uuid.UUID, now time.Time) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	offer, err := s.offerLocked(offerID)
	if err != nil {
		return nil, err
	}
	if err := offer.Cancel(actorID, now); err != nil {
		return nil, err
	}
	s.offers[offer.ID] = offer
	cp := *offer
	return &cp, nil
}

func (s *OfferStore) offerLocked(id uuid.UUID) (*domain.Offer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, domain.NotFound("offer not found")
	}
	cp := *o
	return &cp, nil
}

func (s *OfferStore) productLocked(id uuid.UUID) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.NotFound("product not found")
	}
	cp := *p
	return &cp, nil
}

func (s *OfferStore) childOfLocked(parentID uuid.UUID) *domain.Offer {
	for _, o := range s.offers {
		if o.ParentOfferID != nil && *o.ParentOfferID == parentID {
			cp := *o
			return &cp
		}
	}
	return nil
}
