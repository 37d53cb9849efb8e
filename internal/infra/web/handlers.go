package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/infra/metrics"
)

// maxWebhookBody bounds the raw payload read; provider events are small.
const maxWebhookBody = 1 << 20

// handleWebhook is the provider-to-server channel. Signature verification runs
// over the raw bytes before the payload is parsed or trusted in any way.
// Status codes drive the provider's retry policy: 5xx retries, 4xx does not.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read failure")
		return
	}

	if !s.verifier.Verify(r, body) {
		metrics.IncWebhookSignatureFailure()
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature verification failed")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var evt model.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	evt.Raw = body

	outcome, err := s.reconciler.Process(r.Context(), &evt)
	metrics.IncWebhookEvent(string(evt.EventType), string(outcome))
	if err != nil {
		if errors.Is(err, domain.ErrMissingEventID) {
			writeError(w, http.StatusBadRequest, "event id not derivable")
			return
		}
		s.log.Error().Err(err).Str("event_type", string(evt.EventType)).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "processing failure")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSubscriptionRequest struct {
	ListingID    string `json:"listing_id"`
	PlanType     string `json:"plan_type"`
	DiscountCode string `json:"discount_code,omitempty"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	if !s.rateLimit(r.Context(), ownerID) {
		writeError(w, http.StatusTooManyRequests, "too many subscription attempts; try again shortly")
		return
	}

	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan, err := model.ParsePlanType(req.PlanType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown plan type")
		return
	}

	redirectURL, err := s.agreements.CreateSubscription(r.Context(), ownerID, req.ListingID, plan, req.DiscountCode)
	if err != nil {
		status, msg, outcome := mapCreateError(err)
		metrics.IncAgreement(outcome)
		writeError(w, status, msg)
		return
	}

	metrics.IncAgreement("created")
	writeJSON(w, http.StatusCreated, map[string]string{"redirect_url": redirectURL})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	subID := chi.URLParam(r, "id")
	if subID == "" {
		writeError(w, http.StatusBadRequest, "subscription id is required")
		return
	}

	periodEnd, err := s.cancellations.Cancel(r.Context(), subID, ownerID)
	if err != nil {
		status, msg, outcome := mapCancelError(err)
		metrics.IncCancellation(outcome)
		writeError(w, status, msg)
		return
	}

	metrics.IncCancellation("canceled")
	writeJSON(w, http.StatusOK, struct {
		Success          bool      `json:"success"`
		CurrentPeriodEnd time.Time `json:"current_period_end"`
	}{true, periodEnd})
}

func mapCreateError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "listing not found", "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "you do not own this listing", "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "this listing already has a subscription", "conflict"
	case errors.Is(err, domain.ErrDiscountNotFound),
		errors.Is(err, domain.ErrDiscountExpired),
		errors.Is(err, domain.ErrDiscountInactive),
		errors.Is(err, domain.ErrDiscountExhausted):
		return http.StatusUnprocessableEntity, discountMessage(err), "invalid_discount"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway, "payment provider is unavailable; please try again", "provider_error"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid request", "invalid"
	default:
		return http.StatusInternalServerError, "internal error", "error"
	}
}

func mapCancelError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "subscription not found", "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "you do not own this subscription", "forbidden"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "subscription is not active", "invalid_state"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway, "payment provider is unavailable; please try again", "provider_error"
	default:
		return http.StatusInternalServerError, "internal error", "error"
	}
}

func discountMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDiscountExpired):
		return "discount code has expired"
	case errors.Is(err, domain.ErrDiscountInactive):
		return "discount code is no longer active"
	case errors.Is(err, domain.ErrDiscountExhausted):
		return "discount code has been fully redeemed"
	default:
		return "unknown discount code"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
