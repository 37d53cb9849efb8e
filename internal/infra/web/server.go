package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/infra/logging"
	red "cabin-rental-billing/internal/infra/redis"
	"cabin-rental-billing/internal/usecase"
)

type ctxKeyOwner struct{}

// Server wires the billing HTTP surface: the provider webhook endpoint and
// the owner-facing subscription endpoints.
type Server struct {
	agreements    usecase.AgreementUseCase
	cancellations usecase.CancellationUseCase
	reconciler    usecase.WebhookReconciler
	verifier      *SignatureVerifier
	auth          *AuthManager
	limiter       *red.RateLimiter
	createLimit   int
	log           *zerolog.Logger
}

func NewServer(
	agreements usecase.AgreementUseCase,
	cancellations usecase.CancellationUseCase,
	reconciler usecase.WebhookReconciler,
	verifier *SignatureVerifier,
	auth *AuthManager,
	limiter *red.RateLimiter,
	createLimit int,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		agreements:    agreements,
		cancellations: cancellations,
		reconciler:    reconciler,
		verifier:      verifier,
		auth:          auth,
		limiter:       limiter,
		createLimit:   createLimit,
		log:           logger,
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Webhooks authenticate by signature, not session.
	r.Post("/api/v1/webhooks/vipps", s.handleWebhook)

	r.Route("/api/v1/subscriptions", func(r chi.Router) {
		r.Use(s.ownerMiddleware)
		r.Post("/", s.handleCreateSubscription)
		r.Post("/{id}/cancel", s.handleCancel)
	})

	return r
}

// ownerMiddleware resolves the authenticated owner id and stashes it in the
// request context.
func (s *Server) ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := s.auth.OwnerFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyOwner{}, ownerID)
		ctx = logging.WithOwnerID(ctx, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOwner{}).(string); ok {
		return v
	}
	return ""
}

// rateLimit applies the per-owner fixed window. Limiter trouble fails open:
// losing Redis must not take subscription creation down with it.
func (s *Server) rateLimit(ctx context.Context, ownerID string) bool {
	if s.limiter == nil {
		return true
	}
	allowed, err := s.limiter.Allow(ctx, red.OwnerActionKey(ownerID, "create_subscription"), s.createLimit, time.Minute)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		return true
	}
	return allowed
}
