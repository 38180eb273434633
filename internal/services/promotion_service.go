package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CouponExpirer switches off coupons past their expiry date
type CouponExpirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// CampaignExpirer switches off campaigns past their end date
type CampaignExpirer interface {
	DeactivateEnded(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryReport counts the promotions deactivated by one run
type ExpiryReport struct {
	Coupons   int64
	Campaigns int64
}

// promotionService deactivates promotions that are no longer valid
type promotionService struct {
	coupons   CouponExpirer
	campaigns CampaignExpirer
	logger    *zap.Logger
	now       func() time.Time
}

// NewPromotionService creates a new promotion service
func NewPromotionService(coupons CouponExpirer, campaigns CampaignExpirer, logger *zap.Logger) *promotionService {
	return &promotionService{
		coupons:   coupons,
		campaigns: campaigns,
		logger:    logger,
		now:       time.Now,
	}
}

// DeactivateExpired runs both sweeps. A coupon failure does not stop the campaign sweep.
func (s *promotionService) DeactivateExpired(ctx context.Context) (*ExpiryReport, error) {
	now := s.now()
	report := &ExpiryReport{}

	var firstErr error
	coupons, err := s.coupons.DeactivateExpired(ctx, now)
	if err != nil {
		firstErr = fmt.Errorf("failed to deactivate coupons: %w", err)
	} else {
		report.Coupons = coupons
	}

	campaigns, err := s.campaigns.DeactivateEnded(ctx, now)
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to deactivate campaigns: %w", err)
		}
	} else {
		report.Campaigns = campaigns
	}

	s.logger.Info("promotion sweep finished",
		zap.Int64("coupons", report.Coupons),
		zap.Int64("campaigns", report.Campaigns),
		zap.Error(firstErr),
	)
	return report, firstErr
}
