// internal/service/negotiation/application/service.go
package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"haggle/internal/pkg/logger"
	"haggle/internal/service/negotiation/domain"
	"haggle/internal/service/negotiation/domain/port"
)

const (
	offersNamespace = "offers:*"
	viewTTL         = 3 * time.Minute
	sideEffectBudget = 5 * time.Second
)

func keyListBuyer(id uuid.UUID) string   { return "offers:list:buyer:" + id.String() }
func keyListSeller(id uuid.UUID) string  { return "offers:list:seller:" + id.String() }
func keyStatsSeller(id uuid.UUID) string { return "offers:stats:seller:" + id.String() }
func keyProduct(id uuid.UUID) string     { return "products:" + id.String() }

// NegotiationService orchestrates offer negotiations: it validates
// preconditions against a fresh read, delegates the atomic mutation to the
// store (which re-validates under lock), and fires the best-effort side
// channels after commit. It holds no mutable state between requests.
type NegotiationService struct {
	store    domain.OfferStore
	notifier port.NotificationDispatcher
	cache    port.CacheInvalidator
	views    port.ViewCache
	activity port.ActivityRecorder
	tracer   trace.Tracer

	now func() time.Time
}

func NewNegotiationService(
	store domain.OfferStore,
	notifier port.NotificationDispatcher,
	cache port.CacheInvalidator,
	views port.ViewCache,
	activity port.ActivityRecorder,
	tracer trace.Tracer,
) *NegotiationService {
	return &NegotiationService{
		store:    store,
		notifier: notifier,
		cache:    cache,
		views:    views,
		activity: activity,
		tracer:   tracer,
		now:      time.Now,
	}
}

// CreateOffer opens a negotiation: a buyer proposes a price on an active
// product they do not own. At most one active offer per (buyer, product) may
// exist; the store enforces that in-transaction and surfaces Conflict.
func (s *NegotiationService) CreateOffer(ctx context.Context, productID, buyerID uuid.UUID, amount float64, message string) (*domain.Offer, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.CreateOffer")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID.String()),
		attribute.String("buyer.id", buyerID.String()),
		attribute.Float64("offer.amount", amount),
	)

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	offer, err := domain.NewOffer(product, buyerID, amount, message, s.now())
	if err != nil {
		return nil, s.fail(span, err)
	}

	if err := s.store.CreateOffer(ctx, offer); err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, "", &domain.NotificationEvent{
		Type:          domain.NotificationOfferReceived,
		RecipientID:   offer.SellerID,
		CounterpartID: offer.BuyerID,
		OfferID:       offer.ID,
		ProductID:     offer.ProductID,
		Amount:        offer.Amount,
		Message:       offer.Message,
	}, &domain.ActivityEntry{
		OfferID:   offer.ID,
		ProductID: offer.ProductID,
		ActorID:   buyerID,
		Action:    "created",
		Amount:    offer.Amount,
		At:        offer.CreatedAt,
	})
	return offer, nil
}

// AcceptOffer closes the negotiation in the buyer's favor. The store commits
// the acceptance, the product SOLD transition and the sibling-rejection
// sweep as one transaction; no partial state is ever observable.
func (s *NegotiationService) AcceptOffer(ctx context.Context, offerID, actorID uuid.UUID) (*domain.AcceptOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.AcceptOffer")
	defer span.End()
	span.SetAttributes(attribute.String("offer.id", offerID.String()))

	now := s.now()
	offer, product, err := s.loadOfferWithProduct(ctx, offerID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := offer.CanAccept(product, actorID, now); err != nil {
		return nil, s.fail(span, err)
	}

	out, err := s.store.AcceptOffer(ctx, offerID, actorID, now)
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.Int64("offer.siblings_rejected", out.SiblingsRejected))

	s.afterCommit(ctx, keyProduct(out.Product.ID), &domain.NotificationEvent{
		Type:          domain.NotificationOfferAccepted,
		RecipientID:   out.Offer.BuyerID,
		CounterpartID: out.Offer.SellerID,
		OfferID:       out.Offer.ID,
		ProductID:     out.Offer.ProductID,
		Amount:        out.Offer.Amount,
	}, &domain.ActivityEntry{
		OfferID:   out.Offer.ID,
		ProductID: out.Offer.ProductID,
		ActorID:   actorID,
		Action:    "accepted",
		Amount:    out.Offer.Amount,
		At:        now,
	})
	return out, nil
}

// RejectOffer declines an offer. Legal even past expiry: rejection is always
// safe.
func (s *NegotiationService) RejectOffer(ctx context.Context, offerID, actorID uuid.UUID, reason string) (*domain.Offer, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.RejectOffer")
	defer span.End()
	span.SetAttributes(attribute.String("offer.id", offerID.String()))

	now := s.now()
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := offer.CanReject(actorID); err != nil {
		return nil, s.fail(span, err)
	}

	rejected, err := s.store.RejectOffer(ctx, offerID, actorID, reason, now)
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, "", &domain.NotificationEvent{
		Type:          domain.NotificationOfferRejected,
		RecipientID:   rejected.BuyerID,
		CounterpartID: rejected.SellerID,
		OfferID:       rejected.ID,
		ProductID:     rejected.ProductID,
		Amount:        rejected.Amount,
		Message:       reason,
	}, &domain.ActivityEntry{
		OfferID:   rejected.ID,
		ProductID: rejected.ProductID,
		ActorID:   actorID,
		Action:    "rejected",
		Amount:    rejected.Amount,
		At:        now,
	})
	return rejected, nil
}

// CounterOffer freezes the target offer and spawns the pending child that
// carries the negotiation forward with a fresh expiry window.
func (s *NegotiationService) CounterOffer(ctx context.Context, offerID, actorID uuid.UUID, amount float64, message string) (*domain.CounterOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.CounterOffer")
	defer span.End()
	span.SetAttributes(
		attribute.String("offer.id", offerID.String()),
		attribute.Float64("offer.counter_amount", amount),
	)

	now := s.now()
	offer, product, err := s.loadOfferWithProduct(ctx, offerID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := offer.CanCounter(product, actorID, amount); err != nil {
		return nil, s.fail(span, err)
	}

	out, err := s.store.CounterOffer(ctx, offerID, actorID, amount, message, now)
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, "", &domain.NotificationEvent{
		Type:          domain.NotificationOfferCounter,
		RecipientID:   out.Child.BuyerID,
		CounterpartID: out.Child.SellerID,
		OfferID:       out.Child.ID,
		ProductID:     out.Child.ProductID,
		Amount:        out.Child.Amount,
		Message:       out.Child.Message,
	}, &domain.ActivityEntry{
		OfferID:   out.Parent.ID,
		ProductID: out.Parent.ProductID,
		ActorID:   actorID,
		Action:    "countered",
		Amount:    amount,
		At:        now,
	})
	return out, nil
}

// CancelOffer lets the buyer withdraw an active offer, including a frozen
// parent, which retires that negotiation from their side.
func (s *NegotiationService) CancelOffer(ctx context.Context, offerID, actorID uuid.UUID) (*domain.Offer, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.CancelOffer")
	defer span.End()
	span.SetAttributes(attribute.String("offer.id", offerID.String()))

	now := s.now()
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := offer.CanCancel(actorID); err != nil {
		return nil, s.fail(span, err)
	}

	cancelled, err := s.store.CancelOffer(ctx, offerID, actorID, now)
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, "", nil, &domain.ActivityEntry{
		OfferID:   cancelled.ID,
		ProductID: cancelled.ProductID,
		ActorID:   actorID,
		Action:    "cancelled",
		Amount:    cancelled.Amount,
		At:        now,
	})
	return cancelled, nil
}

// CreateProduct registers a listing so offers can target it.
func (s *NegotiationService) CreateProduct(ctx context.Context, sellerID uuid.UUID) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.CreateProduct")
	defer span.End()

	product, err := domain.NewProduct(sellerID, s.now())
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, s.fail(span, err)
	}
	return product, nil
}

// GetOffer returns one offer.
func (s *NegotiationService) GetOffer(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.GetOffer")
	defer span.End()
	return s.store.GetOffer(ctx, offerID)
}

// GetChain returns the full negotiation history an offer belongs to, root
// first.
func (s *NegotiationService) GetChain(ctx context.Context, offerID uuid.UUID) ([]domain.Offer, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.GetChain")
	defer span.End()
	return s.store.Chain(ctx, offerID)
}

// ListOffers returns a user's offers for the given role ("buyer" or
// "seller"), served from the short-TTL view cache when warm.
func (s *NegotiationService) ListOffers(ctx context.Context, userID uuid.UUID, role string) ([]domain.Offer, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.ListOffers")
	defer span.End()

	var key string
	switch role {
	case "buyer":
		key = keyListBuyer(userID)
	case "seller":
		key = keyListSeller(userID)
	default:
		return nil, domain.BadRequest("role must be buyer or seller")
	}

	var offers []domain.Offer
	if hit, err := s.viewGet(ctx, key, &offers); err == nil && hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return offers, nil
	}

	var err error
	if role == "buyer" {
		offers, err = s.store.ListByBuyer(ctx, userID)
	} else {
		offers, err = s.store.ListBySeller(ctx, userID)
	}
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.viewSet(ctx, key, offers)
	return offers, nil
}

// SellerStats returns a seller's offer counts by status. The view is cached
// with a short TTL; bounded staleness is accepted here instead of explicit
// invalidation.
func (s *NegotiationService) SellerStats(ctx context.Context, sellerID uuid.UUID) (map[domain.OfferStatus]int64, error) {
	ctx, span := s.tracer.Start(ctx, "negotiation.SellerStats")
	defer span.End()

	key := keyStatsSeller(sellerID)
	var stats map[domain.OfferStatus]int64
	if hit, err := s.viewGet(ctx, key, &stats); err == nil && hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return stats, nil
	}

	stats, err := s.store.SellerStats(ctx, sellerID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	s.viewSet(ctx, key, stats)
	return stats, nil
}

func (s *NegotiationService) loadOfferWithProduct(ctx context.Context, offerID uuid.UUID) (*domain.Offer, *domain.Product, error) {
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}
	product, err := s.store.GetProduct(ctx, offer.ProductID)
	if err != nil {
		return nil, nil, err
	}
	return offer, product, nil
}

func (s *NegotiationService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// afterCommit fires the best-effort side channels: coarse namespace
// invalidation, the point product key when its status changed, the
// counterparty notification, and the audit trail entry. It runs detached
// from the request so neither cancellation nor a slow collaborator can
// affect the already-committed negotiation; failures are logged and counted,
// never propagated.
func (s *NegotiationService) afterCommit(ctx context.Context, productKey string, event *domain.NotificationEvent, entry *domain.ActivityEntry) {
	detached := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(detached, sideEffectBudget)
		defer cancel()

		if err := s.cache.InvalidateNamespace(ctx, offersNamespace); err != nil {
			sideChannelFailures.WithLabelValues("cache").Inc()
			logger.Ctx(ctx).Error().Err(err).Msg("cache namespace invalidation failed")
		}
		if productKey != "" {
			if err := s.cache.InvalidateKey(ctx, productKey); err != nil {
				sideChannelFailures.WithLabelValues("cache").Inc()
				logger.Ctx(ctx).Error().Err(err).Str("key", productKey).Msg("cache key invalidation failed")
			}
		}
		if event != nil {
			if err := s.notifier.Dispatch(ctx, event); err != nil {
				sideChannelFailures.WithLabelValues("notification").Inc()
				logger.Ctx(ctx).Error().Err(err).
					Str("type", string(event.Type)).
					Str("recipient", event.RecipientID.String()).
					Msg("notification dispatch failed")
			}
		}
		if entry != nil {
			if err := s.activity.Record(ctx, entry); err != nil {
				sideChannelFailures.WithLabelValues("activity").Inc()
				logger.Ctx(ctx).Error().Err(err).Str("action", entry.Action).Msg("activity record failed")
			}
		}
	}()
}

func (s *NegotiationService) viewGet(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, hit, err := s.views.Get(ctx, key)
	if err != nil || !hit {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *NegotiationService) viewSet(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.views.Set(ctx, key, string(raw), viewTTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("view cache set failed")
	}
}
