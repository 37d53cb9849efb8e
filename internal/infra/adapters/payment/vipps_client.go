package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/config"
	"cabin-rental-billing/internal/domain"
	"cabin-rental-billing/internal/domain/ports/adapter"
	"cabin-rental-billing/internal/infra/metrics"
)

// Compile-time check
var _ adapter.PaymentProvider = (*VippsClient)(nil)

// VippsClient talks to the Vipps MobilePay Recurring API. Access tokens are
// short-lived and re-acquired per logical operation; caching one would fail
// silently as staleness, so we pay the extra round trip.
type VippsClient struct {
	clientID        string
	clientSecret    string
	subscriptionKey string
	merchantSerial  string
	baseURL         string
	redirectURL     string
	client          *http.Client
	log             *zerolog.Logger
}

func NewVippsClient(cfg config.VippsConfig, logger *zerolog.Logger) *VippsClient {
	return &VippsClient{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		subscriptionKey: cfg.SubscriptionKey,
		merchantSerial:  cfg.MerchantSerial,
		baseURL:         cfg.BaseURL,
		redirectURL:     cfg.RedirectURL,
		client:          &http.Client{Timeout: 10 * time.Second},
		log:             logger,
	}
}

func (c *VippsClient) Name() string { return "vipps" }

type vippsTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type vippsAgreementRequest struct {
	Pricing struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"pricing"`
	Interval struct {
		Unit  string `json:"unit"`
		Count int    `json:"count"`
	} `json:"interval"`
	ProductName         string         `json:"productName"`
	MerchantRedirectURL string         `json:"merchantRedirectUrl"`
	Campaign            *vippsCampaign `json:"campaign,omitempty"`
}

type vippsCampaign struct {
	Type   string `json:"type"`
	Price  int64  `json:"price"`
	Period struct {
		Unit  string `json:"unit"`
		Count int    `json:"count"`
	} `json:"period"`
}

type vippsAgreementResponse struct {
	AgreementID         string `json:"agreementId"`
	VippsConfirmationURL string `json:"vippsConfirmationUrl"`
}

// getAccessToken fetches a fresh short-lived token.
func (c *VippsClient) getAccessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accesstoken/get", nil)
	if err != nil {
		return "", fmt.Errorf("%w: build token request: %v", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("client_id", c.clientID)
	req.Header.Set("client_secret", c.clientSecret)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: token endpoint returned %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %v", domain.ErrProviderUnavailable, err)
	}
	var tok vippsTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: malformed token response", domain.ErrProviderUnavailable)
	}
	return tok.AccessToken, nil
}

// CreateAgreement creates a recurring agreement and returns the approval URL.
// Each call sends a fresh Idempotency-Key so a retried HTTP request on the
// provider side cannot create a duplicate agreement.
func (c *VippsClient) CreateAgreement(ctx context.Context, areq adapter.AgreementRequest) (adapter.AgreementRef, error) {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall("create_agreement", time.Since(start).Seconds()) }()

	token, err := c.getAccessToken(ctx)
	if err != nil {
		metrics.IncProviderCall("create_agreement", "token_error")
		return adapter.AgreementRef{}, err
	}

	var body vippsAgreementRequest
	body.Pricing.Amount = areq.PriceAmount
	body.Pricing.Currency = "NOK"
	body.Interval.Unit = "MONTH"
	body.Interval.Count = 1
	body.ProductName = areq.Description
	body.MerchantRedirectURL = c.redirectURL
	if areq.Campaign != nil {
		camp := &vippsCampaign{Type: "PERIOD_CAMPAIGN", Price: areq.Campaign.PriceAmount}
		camp.Period.Unit = "MONTH"
		camp.Period.Count = areq.Campaign.DurationMonths
		body.Campaign = camp
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return adapter.AgreementRef{}, fmt.Errorf("marshal agreement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recurring/v3/agreements", bytes.NewBuffer(jsonData))
	if err != nil {
		return adapter.AgreementRef{}, fmt.Errorf("%w: build agreement request: %v", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Merchant-Serial-Number", c.merchantSerial)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncProviderCall("create_agreement", "transport_error")
		return adapter.AgreementRef{}, fmt.Errorf("%w: agreement request: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncProviderCall("create_agreement", "transport_error")
		return adapter.AgreementRef{}, fmt.Errorf("%w: read agreement response: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.IncProviderCall("create_agreement", "provider_error")
		c.log.Warn().Int("status", resp.StatusCode).Str("body", string(respBody)).Msg("vipps agreement creation rejected")
		return adapter.AgreementRef{}, fmt.Errorf("%w: agreement endpoint returned %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed vippsAgreementResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.AgreementID == "" || parsed.VippsConfirmationURL == "" {
		metrics.IncProviderCall("create_agreement", "provider_error")
		return adapter.AgreementRef{}, fmt.Errorf("%w: malformed agreement response", domain.ErrProviderUnavailable)
	}

	metrics.IncProviderCall("create_agreement", "ok")
	return adapter.AgreementRef{
		AgreementID: parsed.AgreementID,
		RedirectURL: parsed.VippsConfirmationURL,
	}, nil
}

// CancelAgreement stops an agreement. 404 means the agreement is already gone
// and 409 means it is already stopped; both leave the desired end state in
// place and count as success.
func (c *VippsClient) CancelAgreement(ctx context.Context, agreementID string) error {
	start := time.Now()
	defer func() { metrics.ObserveProviderCall("cancel_agreement", time.Since(start).Seconds()) }()

	token, err := c.getAccessToken(ctx)
	if err != nil {
		metrics.IncProviderCall("cancel_agreement", "token_error")
		return err
	}

	jsonData, err := json.Marshal(map[string]string{"status": "STOPPED"})
	if err != nil {
		return fmt.Errorf("marshal cancel request: %w", err)
	}

	url := fmt.Sprintf("%s/recurring/v3/agreements/%s", c.baseURL, agreementID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("%w: build cancel request: %v", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Merchant-Serial-Number", c.merchantSerial)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncProviderCall("cancel_agreement", "transport_error")
		return fmt.Errorf("%w: cancel request: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		metrics.IncProviderCall("cancel_agreement", "ok")
		return nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusConflict:
		metrics.IncProviderCall("cancel_agreement", "already_stopped")
		c.log.Debug().Str("agreement_id", agreementID).Int("status", resp.StatusCode).
			Msg("cancel on missing or already-stopped agreement treated as success")
		return nil
	default:
		metrics.IncProviderCall("cancel_agreement", "provider_error")
		return fmt.Errorf("%w: cancel endpoint returned %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
}
