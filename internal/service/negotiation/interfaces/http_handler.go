// internal/service/negotiation/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"haggle/internal/service/negotiation/application"
	"haggle/internal/service/negotiation/domain"
)

// actorHeader carries the authenticated user resolved by the upstream auth
// layer. The service trusts it; it never authenticates itself.
const actorHeader = "X-User-ID"

// NegotiationHandler exposes the negotiation engine over HTTP.
type NegotiationHandler struct {
	service *application.NegotiationService
}

func NewNegotiationHandler(service *application.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{service: service}
}

// RegisterRoutes registers all routes on the ServeMux.
func (h *NegotiationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/products/create", h.handleCreateProduct)
	mux.HandleFunc("/offers/create", h.handleCreateOffer)
	mux.HandleFunc("/offers/accept", h.handleAcceptOffer)
	mux.HandleFunc("/offers/reject", h.handleRejectOffer)
	mux.HandleFunc("/offers/counter", h.handleCounterOffer)
	mux.HandleFunc("/offers/cancel", h.handleCancelOffer)
	mux.HandleFunc("/offers/get", h.handleGetOffer)
	mux.HandleFunc("/offers/chain", h.handleGetChain)
	mux.HandleFunc("/offers/list", h.handleListOffers)
	mux.HandleFunc("/offers/stats", h.handleSellerStats)
}

type createOfferRequest struct {
	ProductID string  `json:"product_id"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message"`
}

type offerActionRequest struct {
	OfferID string  `json:"offer_id"`
	Amount  float64 `json:"amount,omitempty"`
	Message string  `json:"message,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

type offerResponse struct {
	ID            string     `json:"id"`
	ProductID     string     `json:"product_id"`
	BuyerID       string     `json:"buyer_id"`
	SellerID      string     `json:"seller_id"`
	Amount        float64    `json:"amount"`
	Message       string     `json:"message,omitempty"`
	Status        string     `json:"status"`
	ParentOfferID *string    `json:"parent_offer_id,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
}

func toOfferResponse(o *domain.Offer) offerResponse {
	resp := offerResponse{
		ID:          o.ID.String(),
		ProductID:   o.ProductID.String(),
		BuyerID:     o.BuyerID.String(),
		SellerID:    o.SellerID.String(),
		Amount:      o.Amount,
		Message:     o.Message,
		Status:      string(o.Status),
		ExpiresAt:   o.ExpiresAt,
		CreatedAt:   o.CreatedAt,
		RespondedAt: o.RespondedAt,
	}
	if o.ParentOfferID != nil {
		id := o.ParentOfferID.String()
		resp.ParentOfferID = &id
	}
	return resp
}

func (h *NegotiationHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	product, err := h.service.CreateProduct(ctx, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	negotiationOutcomes.WithLabelValues("product_created").Inc()
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":        product.ID.String(),
		"seller_id": product.SellerID.String(),
		"status":    string(product.Status),
	})
}

func (h *NegotiationHandler) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		http.Error(w, "invalid product_id", http.StatusBadRequest)
		return
	}

	offer, err := h.service.CreateOffer(ctx, productID, actorID, req.Amount, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	negotiationOutcomes.WithLabelValues("created").Inc()
	writeJSON(w, http.StatusCreated, toOfferResponse(offer))
}

func (h *NegotiationHandler) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	offerID, ok := offerIDFromBody(w, r, nil)
	if !ok {
		return
	}

	out, err := h.service.AcceptOffer(ctx, offerID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	negotiationOutcomes.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"offer":             toOfferResponse(out.Offer),
		"product_status":    string(out.Product.Status),
		"siblings_rejected": out.SiblingsRejected,
	})
}

func (h *NegotiationHandler) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req offerActionRequest
	offerID, ok := offerIDFromBody(w, r, &req)
	if !ok {
		return
	}

	offer, err := h.service.RejectOffer(ctx, offerID, actorID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	negotiationOutcomes.WithLabelValues("rejected").Inc()
	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (h *NegotiationHandler) handleCounterOffer(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req offerActionRequest
	offerID, ok := offerIDFromBody(w, r, &req)
	if !ok {
		return
	}

	out, err := h.service.CounterOffer(ctx, offerID, actorID, req.Amount, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	negotiationOutcomes.WithLabelValues("countered").Inc()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"parent": toOfferResponse(out.Parent),
		"child":  toOfferResponse(out.Child),
	})
}

func (h *NegotiationHandler) handleCancelOffer(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	offerID, ok := offerIDFromBody(w, r, nil)
	if !ok {
		return
	}

	offer, err := h.service.CancelOffer(ctx, offerID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	negotiationOutcomes.WithLabelValues("cancelled").Inc()
	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (h *NegotiationHandler) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	offerID, err := uuid.Parse(r.URL.Query().Get("offer_id"))
	if err != nil {
		http.Error(w, "invalid offer_id", http.StatusBadRequest)
		return
	}

	offer, err := h.service.GetOffer(ctx, offerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(offer))
}

func (h *NegotiationHandler) handleGetChain(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	offerID, err := uuid.Parse(r.URL.Query().Get("offer_id"))
	if err != nil {
		http.Error(w, "invalid offer_id", http.StatusBadRequest)
		return
	}

	chain, err := h.service.GetChain(ctx, offerID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]offerResponse, 0, len(chain))
	for i := range chain {
		resp = append(resp, toOfferResponse(&chain[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NegotiationHandler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	userID := actorID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		userID = parsed
	}

	offers, err := h.service.ListOffers(ctx, userID, r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]offerResponse, 0, len(offers))
	for i := range offers {
		resp = append(resp, toOfferResponse(&offers[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NegotiationHandler) handleSellerStats(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	sellerID, err := uuid.Parse(r.URL.Query().Get("seller_id"))
	if err != nil {
		http.Error(w, "invalid seller_id", http.StatusBadRequest)
		return
	}

	stats, err := h.service.SellerStats(ctx, sellerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func extractTraceContext(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(actorHeader)
	if raw == "" {
		http.Error(w, "missing "+actorHeader+" header", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid "+actorHeader+" header", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

// offerIDFromBody decodes the action body (into req when non-nil) and parses
// the offer id.
func offerIDFromBody(w http.ResponseWriter, r *http.Request, req *offerActionRequest) (uuid.UUID, bool) {
	var body offerActionRequest
	if req == nil {
		req = &body
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return uuid.Nil, false
	}
	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		http.Error(w, "invalid offer_id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return offerID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindBadRequest:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
