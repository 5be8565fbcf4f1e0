package adaptor

import (
	"errors"
	"io"
	"net/http"

	"rental-marketplace/internal/usecase"
	"rental-marketplace/pkg/payment"
	"rental-marketplace/pkg/utils"

	"go.uber.org/zap"
)

// maxWebhookBody bounds event payloads before signature verification
const maxWebhookBody = 64 * 1024

type WebhookHandler struct {
	service usecase.WebhookService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// HandleEvent receives payment processor deliveries. The raw body is read
// before any decoding because the signature covers the exact bytes sent.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("Failed to read webhook body", zap.Error(err))
		utils.ResponseBadRequest(w, "Unable to read request body", nil)
		return
	}

	err = h.service.HandleEvent(r.Context(), payload, r.Header.Get(payment.SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) || errors.Is(err, payment.ErrInvalidPayload) {
			utils.ResponseBadRequest(w, err.Error(), nil)
			return
		}
		h.log.Error("Failed to process webhook event", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "Event received", nil)
}
