package wire

import (
	"rental-marketplace/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireWebhook(
	r chi.Router,
	webhookHandler *adaptor.WebhookHandler,
	reaperHandler *adaptor.ReaperHandler,
) {
	// POST /api/webhooks/payment - Payment processor deliveries.
	// Authenticated by HMAC signature, not by session.
	r.Post("/api/webhooks/payment", webhookHandler.HandleEvent)

	// POST /api/internal/sweep - Operator trigger, shared-secret header
	r.Post("/api/internal/sweep", reaperHandler.Sweep)
}
