package usecase

import (
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/pkg/payment"
	"rental-marketplace/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Checkout CheckoutService
	Webhook  WebhookService
	Rental   RentalService
	Reaper   ReaperService
}

func NewService(repo *repository.Repository, gateway payment.Client, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Checkout: NewCheckoutService(repo, gateway, config, log),
		Webhook:  NewWebhookService(repo, config, log),
		Rental:   NewRentalService(repo, log),
		Reaper:   NewReaperService(repo, config, log),
	}
}
