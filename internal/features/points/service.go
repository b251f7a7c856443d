package points

import (
	"context"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
)

// Service manages the points economy.
type Service struct {
	repo       *Repository
	costPerDay int64
}

// NewService creates the points service. costPerDay is the redemption price
// for one day of access; non-positive values fall back to DefaultCostPerDay.
func NewService(repo *Repository, costPerDay int64) *Service {
	if costPerDay <= 0 {
		costPerDay = DefaultCostPerDay
	}
	return &Service{repo: repo, costPerDay: costPerDay}
}

// CostPerDay returns the configured redemption rate.
func (s *Service) CostPerDay() int64 { return s.costPerDay }

// RedeemCost returns the points needed to redeem a key of the given duration.
func (s *Service) RedeemCost(days int) int64 {
	return int64(days) * s.costPerDay
}

// Balance returns the current balance for a chat.
func (s *Service) Balance(ctx context.Context, chatID int64) (int64, error) {
	return s.repo.Balance(ctx, chatID)
}

// Credit awards points. Amount must be positive.
func (s *Service) Credit(ctx context.Context, chatID, amount int64, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.Credit(ctx, chatID, amount, description); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"chat_id": chatID,
		"points":  amount,
		"reason":  description,
	}).Info("points credited")
	return nil
}

// Debit spends points. Returns ErrInsufficientPoints without mutating the
// ledger when the balance does not cover the amount.
func (s *Service) Debit(ctx context.Context, chatID, amount int64, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	ok, err := s.repo.Debit(ctx, chatID, amount, description)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInsufficientPoints
	}
	log.WithFields(log.Fields{
		"chat_id": chatID,
		"points":  amount,
		"reason":  description,
	}).Info("points debited")
	return nil
}

// AwardForPurchase credits the tiered reward for a completed purchase.
func (s *Service) AwardForPurchase(ctx context.Context, chatID int64, days int, orderID string) error {
	return s.Credit(ctx, chatID, ForDuration(days), "purchase "+orderID)
}
