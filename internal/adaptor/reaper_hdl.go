package adaptor

import (
	"crypto/subtle"
	"net/http"

	"rental-marketplace/internal/usecase"
	"rental-marketplace/pkg/utils"

	"go.uber.org/zap"
)

// SweepSecretHeader authenticates internal sweep triggers
const SweepSecretHeader = "X-Sweep-Secret"

type ReaperHandler struct {
	service usecase.ReaperService
	secret  string
	log     *zap.Logger
}

func NewReaperHandler(service usecase.ReaperService, secret string, log *zap.Logger) *ReaperHandler {
	return &ReaperHandler{
		service: service,
		secret:  secret,
		log:     log.With(zap.String("handler", "reaper")),
	}
}

// Sweep runs one reclamation pass on demand. The background scheduler covers
// steady state; this endpoint exists for operators and tests.
func (h *ReaperHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	provided := r.Header.Get(SweepSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		h.log.Warn("Sweep trigger rejected", zap.String("remote", r.RemoteAddr))
		utils.ResponseUnauthorized(w, "Invalid sweep secret")
		return
	}

	result, err := h.service.SweepExpired(r.Context())
	if err != nil {
		h.log.Error("Failed to sweep expired reservations", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "Sweep completed", result)
}
