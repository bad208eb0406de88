package routes

import (
	"net/http"

	"github.com/zatekoja/postnatalcare/backend/internal/api/handlers"
	"github.com/zatekoja/postnatalcare/backend/internal/api/middleware"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	webhookHandler  *handlers.WhatsAppWebhookHandler
	triageHandler   *handlers.TriageHandler
	recoveryHandler *handlers.RecoveryHandler
	profileHandler  *handlers.ProfileHandler
	healthHandler   *handlers.HealthHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	webhookHandler *handlers.WhatsAppWebhookHandler,
	triageHandler *handlers.TriageHandler,
	recoveryHandler *handlers.RecoveryHandler,
	profileHandler *handlers.ProfileHandler,
	healthHandler *handlers.HealthHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		webhookHandler:  webhookHandler,
		triageHandler:   triageHandler,
		recoveryHandler: recoveryHandler,
		profileHandler:  profileHandler,
		healthHandler:   healthHandler,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	if r.healthHandler != nil {
		r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	} else {
		r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
	}

	// Messaging transport
	if r.webhookHandler != nil {
		r.mux.HandleFunc("GET /webhooks/whatsapp", r.webhookHandler.Verify)
		r.mux.HandleFunc("POST /webhooks/whatsapp", r.webhookHandler.Receive)
	}

	// In-app triage
	r.mux.HandleFunc("POST /api/triage", r.triageHandler.Triage)

	// Recovery
	r.mux.HandleFunc("GET /api/recovery/{senderID}/snapshot", r.recoveryHandler.GetSnapshot)
	r.mux.HandleFunc("POST /api/recovery/{senderID}/samples", r.recoveryHandler.RecordSample)

	// Profiles and emergency contacts
	r.mux.HandleFunc("GET /api/profiles/{senderID}", r.profileHandler.GetProfile)
	r.mux.HandleFunc("PUT /api/profiles/{senderID}", r.profileHandler.UpdateProfile)
	r.mux.HandleFunc("GET /api/profiles/{senderID}/contacts", r.profileHandler.ListContacts)
	r.mux.HandleFunc("POST /api/profiles/{senderID}/contacts", r.profileHandler.AddContact)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflight never reaches handlers
	handler = middleware.CORSMiddleware(handler)

	return handler
}
