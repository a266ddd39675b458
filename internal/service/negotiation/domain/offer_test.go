// internal/service/negotiation/domain/offer_test.go
package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func activeProduct(sellerID uuid.UUID) *Product {
	return &Product{ID: uuid.New(), SellerID: sellerID, Status: ProductActive}
}

func TestNewOffer(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()

	tests := []struct {
		name     string
		product  *Product
		buyerID  uuid.UUID
		amount   float64
		wantKind Kind
	}{
		{"valid", activeProduct(seller), buyer, 100, ""},
		{"zero amount", activeProduct(seller), buyer, 0, KindBadRequest},
		{"negative amount", activeProduct(seller), buyer, -5, KindBadRequest},
		{"self offer", activeProduct(seller), seller, 100, KindBadRequest},
		{"sold product", &Product{ID: uuid.New(), SellerID: seller, Status: ProductSold}, buyer, 100, KindBadRequest},
		{"inactive product", &Product{ID: uuid.New(), SellerID: seller, Status: ProductInactive}, buyer, 100, KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer, err := NewOffer(tt.product, tt.buyerID, tt.amount, "msg", testNow)
			if tt.wantKind != "" {
				if KindOf(err) != tt.wantKind {
					t.Fatalf("want kind %s, got %v", tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if offer.Status != StatusPending {
				t.Errorf("new offer status = %s, want PENDING", offer.Status)
			}
			if offer.SellerID != tt.product.SellerID {
				t.Errorf("seller not bound to product seller")
			}
			if got, want := offer.ExpiresAt, testNow.Add(OfferTTL); !got.Equal(want) {
				t.Errorf("expiresAt = %v, want %v", got, want)
			}
			if offer.RespondedAt != nil {
				t.Errorf("respondedAt set on creation")
			}
		})
	}
}

func TestOfferAccept(t *testing.T) {
	seller := uuid.New()
	product := activeProduct(seller)
	buyer := uuid.New()

	t.Run("happy path", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Accept(product, seller, testNow.Add(time.Hour)); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if offer.Status != StatusAccepted {
			t.Errorf("status = %s, want ACCEPTED", offer.Status)
		}
		if offer.RespondedAt == nil {
			t.Errorf("respondedAt not set")
		}
	})

	t.Run("wrong actor is forbidden", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Accept(product, buyer, testNow); !IsForbidden(err) {
			t.Errorf("want Forbidden, got %v", err)
		}
	})

	t.Run("expired offer cannot be accepted", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		late := testNow.Add(OfferTTL + time.Minute)
		if err := offer.Accept(product, seller, late); !IsBadRequest(err) {
			t.Errorf("want BadRequest, got %v", err)
		}
		if offer.Status != StatusPending {
			t.Errorf("failed accept mutated status to %s", offer.Status)
		}
	})

	t.Run("boundary: acceptable exactly at expiry", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Accept(product, seller, offer.ExpiresAt); err != nil {
			t.Errorf("accept at expiry instant failed: %v", err)
		}
	})

	t.Run("sold product", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		sold := &Product{ID: product.ID, SellerID: seller, Status: ProductSold}
		if err := offer.Accept(sold, seller, testNow); !IsBadRequest(err) {
			t.Errorf("want BadRequest, got %v", err)
		}
	})

	t.Run("frozen parent cannot be accepted", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if _, err := offer.Counter(product, seller, 120, "", testNow); err != nil {
			t.Fatalf("counter failed: %v", err)
		}
		if err := offer.Accept(product, seller, testNow); !IsBadRequest(err) {
			t.Errorf("want BadRequest on frozen parent, got %v", err)
		}
	})

	t.Run("terminal offer cannot be accepted", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Cancel(buyer, testNow); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		if err := offer.Accept(product, seller, testNow); !IsBadRequest(err) {
			t.Errorf("want BadRequest, got %v", err)
		}
	})
}

func TestOfferReject(t *testing.T) {
	seller := uuid.New()
	product := activeProduct(seller)
	buyer := uuid.New()

	t.Run("happy path with reason", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "original", testNow)
		if err := offer.Reject(seller, "too low", testNow); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if offer.Status != StatusRejected {
			t.Errorf("status = %s, want REJECTED", offer.Status)
		}
		if offer.Message != "too low" {
			t.Errorf("reason did not override message, got %q", offer.Message)
		}
	})

	t.Run("empty reason keeps message", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "original", testNow)
		offer.Reject(seller, "", testNow)
		if offer.Message != "original" {
			t.Errorf("message = %q, want original", offer.Message)
		}
	})

	t.Run("expired offer can still be rejected", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		late := testNow.Add(OfferTTL + 24*time.Hour)
		if err := offer.Reject(seller, "", late); err != nil {
			t.Errorf("rejecting an expired offer should be legal, got %v", err)
		}
	})

	t.Run("buyer cannot reject", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Reject(buyer, "", testNow); !IsForbidden(err) {
			t.Errorf("want Forbidden, got %v", err)
		}
	})

	t.Run("frozen parent cannot be rejected", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		offer.Counter(product, seller, 120, "", testNow)
		if err := offer.Reject(seller, "", testNow); !IsBadRequest(err) {
			t.Errorf("want BadRequest, got %v", err)
		}
	})
}

func TestOfferCounter(t *testing.T) {
	seller := uuid.New()
	product := activeProduct(seller)
	buyer := uuid.New()

	t.Run("spawns pending child and freezes parent", func(t *testing.T) {
		parent, _ := NewOffer(product, buyer, 100, "", testNow)
		later := testNow.Add(time.Hour)
		child, err := parent.Counter(product, seller, 130, "meet me halfway", later)
		if err != nil {
			t.Fatalf("counter failed: %v", err)
		}
		if parent.Status != StatusCounterOffered {
			t.Errorf("parent status = %s, want COUNTER_OFFERED", parent.Status)
		}
		if parent.RespondedAt == nil {
			t.Errorf("parent respondedAt not set")
		}
		if child.Status != StatusPending {
			t.Errorf("child status = %s, want PENDING", child.Status)
		}
		if child.BuyerID != buyer {
			t.Errorf("child buyer changed")
		}
		if child.SellerID != seller {
			t.Errorf("child seller = %s, want acting seller", child.SellerID)
		}
		if child.ParentOfferID == nil || *child.ParentOfferID != parent.ID {
			t.Errorf("child not linked to parent")
		}
		if child.Amount != 130 {
			t.Errorf("child amount = %v, want 130", child.Amount)
		}
		if got, want := child.ExpiresAt, later.Add(OfferTTL); !got.Equal(want) {
			t.Errorf("child expiry = %v, want fresh window %v", got, want)
		}
	})

	t.Run("re-countering a frozen parent is rejected", func(t *testing.T) {
		parent, _ := NewOffer(product, buyer, 100, "", testNow)
		if _, err := parent.Counter(product, seller, 130, "", testNow); err != nil {
			t.Fatalf("first counter failed: %v", err)
		}
		if _, err := parent.Counter(product, seller, 140, "", testNow); !IsBadRequest(err) {
			t.Errorf("want BadRequest on second counter, got %v", err)
		}
	})

	t.Run("non-positive counter amount", func(t *testing.T) {
		parent, _ := NewOffer(product, buyer, 100, "", testNow)
		if _, err := parent.Counter(product, seller, 0, "", testNow); !IsBadRequest(err) {
			t.Errorf("want BadRequest, got %v", err)
		}
	})

	t.Run("buyer cannot counter", func(t *testing.T) {
		parent, _ := NewOffer(product, buyer, 100, "", testNow)
		if _, err := parent.Counter(product, buyer, 90, "", testNow); !IsForbidden(err) {
			t.Errorf("want Forbidden, got %v", err)
		}
	})
}

func TestOfferCancel(t *testing.T) {
	seller := uuid.New()
	product := activeProduct(seller)
	buyer := uuid.New()

	t.Run("buyer cancels pending offer", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Cancel(buyer, testNow); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		if offer.Status != StatusCancelled {
			t.Errorf("status = %s, want CANCELLED", offer.Status)
		}
	})

	t.Run("frozen parent remains cancellable", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		offer.Counter(product, seller, 120, "", testNow)
		if err := offer.Cancel(buyer, testNow); err != nil {
			t.Errorf("cancelling countered parent should be legal, got %v", err)
		}
	})

	t.Run("expired offer can still be cancelled", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Cancel(buyer, testNow.Add(OfferTTL+time.Hour)); err != nil {
			t.Errorf("cancelling an expired offer should be legal, got %v", err)
		}
	})

	t.Run("seller cannot cancel", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		if err := offer.Cancel(seller, testNow); !IsForbidden(err) {
			t.Errorf("want Forbidden, got %v", err)
		}
	})

	t.Run("terminal offer cannot be cancelled", func(t *testing.T) {
		offer, _ := NewOffer(product, buyer, 100, "", testNow)
		offer.Cancel(buyer, testNow)
		if err := offer.Cancel(buyer, testNow); !IsBadRequest(err) {
			t.Errorf("want BadRequest, got %v", err)
		}
	})
}

func TestStatusPredicates(t *testing.T) {
	active := []OfferStatus{StatusPending, StatusCounterOffered}
	terminal := []OfferStatus{StatusAccepted, StatusRejected, StatusCancelled}

	for _, s := range active {
		if !s.Active() || s.Terminal() {
			t.Errorf("%s should be active and not terminal", s)
		}
	}
	for _, s := range terminal {
		if s.Active() || !s.Terminal() {
			t.Errorf("%s should be terminal and not active", s)
		}
	}
}
