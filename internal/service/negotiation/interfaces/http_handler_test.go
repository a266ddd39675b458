// internal/service/negotiation/interfaces/http_handler_test.go
package interfaces

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"haggle/internal/service/negotiation/application"
	"haggle/internal/service/negotiation/domain"
	"haggle/internal/service/negotiation/mock"
)

func newTestServer(t *testing.T) (*httptest.Server, *mock.OfferStore) {
	t.Helper()
	store := mock.NewOfferStore()
	svc := application.NewNegotiationService(
		store,
		mock.NewDispatcher(),
		mock.NewInvalidator(),
		mock.NewViewCache(),
		mock.NewRecorder(),
		otel.Tracer("test"),
	)
	mux := http.NewServeMux()
	NewNegotiationHandler(svc).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, srv *httptest.Server, path string, actorID uuid.UUID, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if actorID != uuid.Nil {
		req.Header.Set(actorHeader, actorID.String())
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func seedProduct(store *mock.OfferStore, sellerID uuid.UUID) *domain.Product {
	product := &domain.Product{ID: uuid.New(), SellerID: sellerID, Status: domain.ProductActive}
	store.SeedProduct(product)
	return product
}

func TestNegotiationOverHTTP(t *testing.T) {
	srv, store := newTestServer(t)
	seller, buyer := uuid.New(), uuid.New()
	product := seedProduct(store, seller)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp := doJSON(t, srv, "/offers/create", buyer, map[string]interface{}{
		"product_id": product.ID.String(),
		"amount":     100,
		"message":    "will you take 100?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &created)
	if created.Status != "PENDING" {
		t.Errorf("created status = %s", created.Status)
	}

	var countered struct {
		Parent struct {
			Status string `json:"status"`
		} `json:"parent"`
		Child struct {
			ID            string  `json:"id"`
			BuyerID       string  `json:"buyer_id"`
			Amount        float64 `json:"amount"`
			ParentOfferID *string `json:"parent_offer_id"`
		} `json:"child"`
	}
	resp = doJSON(t, srv, "/offers/counter", seller, map[string]interface{}{
		"offer_id": created.ID,
		"amount":   130,
		"message":  "130 and it's yours",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("counter status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &countered)
	if countered.Parent.Status != "COUNTER_OFFERED" {
		t.Errorf("parent status = %s", countered.Parent.Status)
	}
	if countered.Child.BuyerID != buyer.String() || countered.Child.Amount != 130 {
		t.Errorf("child = %+v", countered.Child)
	}
	if countered.Child.ParentOfferID == nil || *countered.Child.ParentOfferID != created.ID {
		t.Errorf("child not linked to parent")
	}

	var accepted struct {
		Offer struct {
			Status string `json:"status"`
		} `json:"offer"`
		ProductStatus    string `json:"product_status"`
		SiblingsRejected int64  `json:"siblings_rejected"`
	}
	resp = doJSON(t, srv, "/offers/accept", seller, map[string]string{"offer_id": countered.Child.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &accepted)
	if accepted.Offer.Status != "ACCEPTED" || accepted.ProductStatus != "SOLD" {
		t.Errorf("accept response = %+v", accepted)
	}
	if accepted.SiblingsRejected != 1 {
		t.Errorf("siblings rejected = %d, want frozen parent swept", accepted.SiblingsRejected)
	}

	var chain []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp, err := srv.Client().Get(fmt.Sprintf("%s/offers/chain?offer_id=%s", srv.URL, created.ID))
	if err != nil {
		t.Fatalf("chain request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chain status = %d", resp.StatusCode)
	}
	decodeBody(t, resp, &chain)
	if len(chain) != 2 || chain[0].ID != created.ID || chain[1].ID != countered.Child.ID {
		t.Errorf("chain = %+v, want root then counter", chain)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv, store := newTestServer(t)
	seller, buyer := uuid.New(), uuid.New()
	product := seedProduct(store, seller)

	pending := &domain.Offer{
		ID: uuid.New(), ProductID: product.ID, BuyerID: buyer, SellerID: seller,
		Amount: 100, Status: domain.StatusPending,
		ExpiresAt: time.Now().Add(domain.OfferTTL),
	}
	store.SeedOffer(pending)

	tests := []struct {
		name  string
		path  string
		actor uuid.UUID
		body  interface{}
		want  int
	}{
		{
			name: "unknown offer is 404", path: "/offers/accept", actor: seller,
			body: map[string]string{"offer_id": uuid.NewString()},
			want: http.StatusNotFound,
		},
		{
			name: "buyer accepting is 403", path: "/offers/accept", actor: buyer,
			body: map[string]string{"offer_id": pending.ID.String()},
			want: http.StatusForbidden,
		},
		{
			name: "duplicate active offer is 409", path: "/offers/create", actor: buyer,
			body: map[string]interface{}{"product_id": product.ID.String(), "amount": 110},
			want: http.StatusConflict,
		},
		{
			name: "self offer is 400", path: "/offers/create", actor: seller,
			body: map[string]interface{}{"product_id": product.ID.String(), "amount": 110},
			want: http.StatusBadRequest,
		},
		{
			name: "malformed offer id is 400", path: "/offers/cancel", actor: buyer,
			body: map[string]string{"offer_id": "not-a-uuid"},
			want: http.StatusBadRequest,
		},
		{
			name: "missing actor header is 401", path: "/offers/cancel", actor: uuid.Nil,
			body: map[string]string{"offer_id": pending.ID.String()},
			want: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, srv, tt.path, tt.actor, tt.body)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestStoreFailureIs500(t *testing.T) {
	srv, store := newTestServer(t)
	store.Err = fmt.Errorf("connection refused")

	resp, err := srv.Client().Get(fmt.Sprintf("%s/offers/get?offer_id=%s", srv.URL, uuid.NewString()))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("error body missing")
	}
}

func TestInvalidActorHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/offers/list", nil)
	req.Header.Set(actorHeader, "not-a-uuid")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestListAndStatsOverHTTP(t *testing.T) {
	srv, store := newTestServer(t)
	seller, buyer := uuid.New(), uuid.New()
	product := seedProduct(store, seller)

	resp := doJSON(t, srv, "/offers/create", buyer, map[string]interface{}{
		"product_id": product.ID.String(),
		"amount":     100,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/offers/list?role=buyer", nil)
	req.Header.Set(actorHeader, buyer.String())
	listResp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", listResp.StatusCode)
	}
	var offers []struct {
		BuyerID string `json:"buyer_id"`
		Status  string `json:"status"`
	}
	decodeBody(t, listResp, &offers)
	if len(offers) != 1 || offers[0].BuyerID != buyer.String() {
		t.Errorf("list = %+v", offers)
	}

	statsResp, err := srv.Client().Get(fmt.Sprintf("%s/offers/stats?seller_id=%s", srv.URL, seller))
	if err != nil {
		t.Fatalf("stats request: %v", err)
	}
	if statsResp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", statsResp.StatusCode)
	}
	var stats map[string]int64
	decodeBody(t, statsResp, &stats)
	if stats["PENDING"] != 1 {
		t.Errorf("stats = %v, want 1 pending", stats)
	}
}
