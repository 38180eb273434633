package main

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/services"
	"go.uber.org/zap"
)

const (
	sweepLockKey = "yowa:scheduler:promotions"
	sweepLockTTL = 5 * time.Minute
	sweepTimeout = 2 * time.Minute

	tokenCleanupSpec    = "@daily"
	tokenCleanupLockKey = "yowa:scheduler:tokens"
)

// PromotionSweeper deactivates expired coupons and ended campaigns
type PromotionSweeper interface {
	DeactivateExpired(ctx context.Context) (*services.ExpiryReport, error)
}

// UserLister lists accounts, used to find the admins to report to
type UserLister interface {
	GetAll(ctx context.Context) ([]models.User, error)
}

// ReportNotifier sends the sweep summary
type ReportNotifier interface {
	PromotionsExpired(ctx context.Context, to string, coupons, campaigns int64)
}

// Locker guards a run across scheduler replicas
type Locker interface {
	// Acquire returns false when another owner holds the lock
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// TokenCleaner removes refresh tokens issued before a cutoff
type TokenCleaner interface {
	DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error)
}

// Scheduler runs the promotion sweep on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	sweeper  PromotionSweeper
	users    UserLister
	notifier ReportNotifier
	locker   Locker
	logger   *zap.Logger

	tokens   TokenCleaner
	tokenTTL time.Duration
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(spec string, sweeper PromotionSweeper, users UserLister, notifier ReportNotifier, locker Locker, logger *zap.Logger) *Scheduler {
	cronLogger := zapCronLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		spec:     spec,
		sweeper:  sweeper,
		users:    users,
		notifier: notifier,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// WithTokenCleanup adds a daily job deleting refresh tokens older than maxAge
func (s *Scheduler) WithTokenCleanup(cleaner TokenCleaner, maxAge time.Duration) *Scheduler {
	s.tokens = cleaner
	s.tokenTTL = maxAge
	return s
}

// Start registers the sweep and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		s.runOnce(ctx)
	}); err != nil {
		return err
	}

	if s.tokens != nil {
		if _, err := s.cron.AddFunc(tokenCleanupSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			defer cancel()
			s.cleanTokens(ctx)
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("cron", s.spec))
	return nil
}

// Stop stops the cron loop and waits for a running sweep
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// runOnce performs one locked sweep and reports changes to admins
func (s *Scheduler) runOnce(ctx context.Context) {
	owner := uuid.NewString()
	acquired, err := s.locker.Acquire(ctx, sweepLockKey, owner, sweepLockTTL)
	if err != nil {
		s.logger.Error("Failed to acquire scheduler lock", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("Promotion sweep is running elsewhere, skipping")
		return
	}
	defer func() {
		if err := s.locker.Release(context.Background(), sweepLockKey, owner); err != nil {
			s.logger.Warn("Failed to release scheduler lock", zap.Error(err))
		}
	}()

	report, err := s.sweeper.DeactivateExpired(ctx)
	if err != nil {
		s.logger.Error("Promotion sweep failed", zap.Error(err))
	}
	if report == nil || report.Coupons+report.Campaigns == 0 {
		return
	}

	s.notifyAdmins(ctx, report)
}

// cleanTokens deletes expired refresh tokens under its own lock
func (s *Scheduler) cleanTokens(ctx context.Context) {
	owner := uuid.NewString()
	acquired, err := s.locker.Acquire(ctx, tokenCleanupLockKey, owner, sweepLockTTL)
	if err != nil {
		s.logger.Error("Failed to acquire token cleanup lock", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.locker.Release(context.Background(), tokenCleanupLockKey, owner); err != nil {
			s.logger.Warn("Failed to release token cleanup lock", zap.Error(err))
		}
	}()

	deleted, err := s.tokens.DeleteExpiredTokens(ctx, s.now().Add(-s.tokenTTL))
	if err != nil {
		s.logger.Error("Failed to delete expired tokens", zap.Error(err))
		return
	}
	s.logger.Info("Expired tokens deleted", zap.Int("count", deleted))
}

func (s *Scheduler) notifyAdmins(ctx context.Context, report *services.ExpiryReport) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list admins for sweep report", zap.Error(err))
		return
	}

	for _, user := range users {
		if user.Role != models.RoleAdmin {
			continue
		}
		s.notifier.PromotionsExpired(ctx, user.Email, report.Coupons, report.Campaigns)
	}
}

// releaseScript deletes the lock only when it still belongs to the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisLocker implements Locker with SET NX and an owner token
type redisLocker struct {
	client *redis.Client
}

func newRedisLocker(client *redis.Client) *redisLocker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, owner, ttl).Result()
}

func (l *redisLocker) Release(ctx context.Context, key, owner string) error {
	err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
