//go:build !integration

package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/config"
	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/infra/adapters/payment"
)

func testClient(baseURL string) *payment.VippsClient {
	logger := zerolog.New(io.Discard)
	return payment.NewVippsClient(config.VippsConfig{
		ClientID:        "cid",
		ClientSecret:    "csecret",
		SubscriptionKey: "skey",
		MerchantSerial:  "123456",
		BaseURL:         baseURL,
		RedirectURL:     "https://marketplace.example/billing/return",
	}, &logger)
}

// vippsStub emulates the token and agreement endpoints.
type vippsStub struct {
	mu              *http.ServeMux
	agreementStatus int
	agreementBody   string
	lastAgreement   map[string]any
	lastHeaders     http.Header
}

func newVippsStub() *vippsStub {
	s := &vippsStub{
		mu:              http.NewServeMux(),
		agreementStatus: http.StatusCreated,
		agreementBody:   `{"agreementId":"agr-123","vippsConfirmationUrl":"https://pay.vipps.no/agr-123"}`,
	}
	s.mu.HandleFunc("/accesstoken/get", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("client_id") == "" || r.Header.Get("client_secret") == "" ||
			r.Header.Get("Ocp-Apim-Subscription-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":"3600"}`))
	})
	s.mu.HandleFunc("/recurring/v3/agreements", func(w http.ResponseWriter, r *http.Request) {
		s.lastHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &s.lastAgreement)
		w.WriteHeader(s.agreementStatus)
		_, _ = w.Write([]byte(s.agreementBody))
	})
	return s
}

func TestVippsClient_CreateAgreement(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an agreement and returns the confirmation url", func(t *testing.T) {
		stub := newVippsStub()
		srv := httptest.NewServer(stub.mu)
		defer srv.Close()

		c := testClient(srv.URL)
		ref, err := c.CreateAgreement(ctx, adapter.AgreementRequest{
			OwnerID:     "owner-1",
			PriceAmount: 19900,
			Description: "basic listing subscription",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if ref.AgreementID != "agr-123" {
			t.Errorf("expected agr-123, got %s", ref.AgreementID)
		}
		if ref.RedirectURL != "https://pay.vipps.no/agr-123" {
			t.Errorf("unexpected redirect url: %s", ref.RedirectURL)
		}

		if stub.lastHeaders.Get("Idempotency-Key") == "" {
			t.Error("every create must carry an idempotency key")
		}
		if stub.lastHeaders.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("expected the fetched bearer token, got %q", stub.lastHeaders.Get("Authorization"))
		}

		pricing := stub.lastAgreement["pricing"].(map[string]any)
		if pricing["amount"].(float64) != 19900 || pricing["currency"].(string) != "NOK" {
			t.Errorf("unexpected pricing payload: %+v", pricing)
		}
		if _, hasCampaign := stub.lastAgreement["campaign"]; hasCampaign {
			t.Error("no campaign expected without a discount code")
		}
	})

	t.Run("sends a zero-price campaign for discount terms", func(t *testing.T) {
		stub := newVippsStub()
		srv := httptest.NewServer(stub.mu)
		defer srv.Close()

		c := testClient(srv.URL)
		_, err := c.CreateAgreement(ctx, adapter.AgreementRequest{
			OwnerID:     "owner-1",
			PriceAmount: 19900,
			Description: "basic listing subscription",
			Campaign:    &adapter.CampaignTerm{PriceAmount: 0, DurationMonths: 2},
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		camp := stub.lastAgreement["campaign"].(map[string]any)
		if camp["type"].(string) != "PERIOD_CAMPAIGN" || camp["price"].(float64) != 0 {
			t.Errorf("unexpected campaign payload: %+v", camp)
		}
		period := camp["period"].(map[string]any)
		if period["unit"].(string) != "MONTH" || period["count"].(float64) != 2 {
			t.Errorf("unexpected campaign period: %+v", period)
		}
	})

	t.Run("maps a provider rejection to ErrProviderUnavailable", func(t *testing.T) {
		stub := newVippsStub()
		stub.agreementStatus = http.StatusBadRequest
		stub.agreementBody = `{"error":"invalid pricing"}`
		srv := httptest.NewServer(stub.mu)
		defer srv.Close()

		c := testClient(srv.URL)
		_, err := c.CreateAgreement(ctx, adapter.AgreementRequest{PriceAmount: 19900})
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("maps an unreachable provider to ErrProviderUnavailable", func(t *testing.T) {
		c := testClient("http://127.0.0.1:1")
		_, err := c.CreateAgreement(ctx, adapter.AgreementRequest{PriceAmount: 19900})
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
	})
}

func TestVippsClient_CancelAgreement(t *testing.T) {
	ctx := context.Background()

	cancelServer := func(status int) *httptest.Server {
		mux := http.NewServeMux()
		mux.HandleFunc("/accesstoken/get", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":"3600"}`))
		})
		mux.HandleFunc("/recurring/v3/agreements/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["status"] != "STOPPED" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(status)
		})
		return httptest.NewServer(mux)
	}

	t.Run("stops an agreement", func(t *testing.T) {
		srv := cancelServer(http.StatusOK)
		defer srv.Close()
		if err := testClient(srv.URL).CancelAgreement(ctx, "agr-123"); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
	})

	t.Run("treats an unknown agreement as already stopped", func(t *testing.T) {
		srv := cancelServer(http.StatusNotFound)
		defer srv.Close()
		if err := testClient(srv.URL).CancelAgreement(ctx, "agr-gone"); err != nil {
			t.Fatalf("404 must count as success, got: %v", err)
		}
	})

	t.Run("treats an already-stopped agreement as success", func(t *testing.T) {
		srv := cancelServer(http.StatusConflict)
		defer srv.Close()
		if err := testClient(srv.URL).CancelAgreement(ctx, "agr-stopped"); err != nil {
			t.Fatalf("409 must count as success, got: %v", err)
		}
	})

	t.Run("maps a hard failure to ErrProviderUnavailable", func(t *testing.T) {
		srv := cancelServer(http.StatusInternalServerError)
		defer srv.Close()
		err := testClient(srv.URL).CancelAgreement(ctx, "agr-123")
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
	})
}
