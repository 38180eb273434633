package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/services"
	"go.uber.org/zap"
)

type mockSweeper struct {
	report *services.ExpiryReport
	err    error
	calls  int
}

func (m *mockSweeper) DeactivateExpired(ctx context.Context) (*services.ExpiryReport, error) {
	m.calls++
	return m.report, m.err
}

type mockUserLister struct {
	users []models.User
	err   error
}

func (m *mockUserLister) GetAll(ctx context.Context) ([]models.User, error) {
	return m.users, m.err
}

type sentReport struct {
	to        string
	coupons   int64
	campaigns int64
}

type mockReportNotifier struct {
	sent []sentReport
}

func (m *mockReportNotifier) PromotionsExpired(ctx context.Context, to string, coupons, campaigns int64) {
	m.sent = append(m.sent, sentReport{to: to, coupons: coupons, campaigns: campaigns})
}

type mockLocker struct {
	held       bool
	acquireErr error
	owner      string
	released   bool
}

func (m *mockLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if m.acquireErr != nil {
		return false, m.acquireErr
	}
	if m.held {
		return false, nil
	}
	m.held = true
	m.owner = owner
	return true, nil
}

func (m *mockLocker) Release(ctx context.Context, key, owner string) error {
	if owner == m.owner {
		m.held = false
		m.released = true
	}
	return nil
}

type mockTokenCleaner struct {
	cutoff  time.Time
	deleted int
	err     error
	calls   int
}

func (m *mockTokenCleaner) DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error) {
	m.calls++
	m.cutoff = expiryTime
	return m.deleted, m.err
}

var testUsers = []models.User{
	{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin},
	{ID: 2, Email: "student@example.com", Role: models.RoleStudent},
	{ID: 3, Email: "ops@example.com", Role: models.RoleAdmin},
}

func TestScheduler_RunOnce(t *testing.T) {
	tests := []struct {
		name            string
		sweeper         *mockSweeper
		locker          *mockLocker
		users           *mockUserLister
		expectedSweeps  int
		expectedReports []sentReport
		expectReleased  bool
	}{
		{
			name:           "reports changes to every admin",
			sweeper:        &mockSweeper{report: &services.ExpiryReport{Coupons: 2, Campaigns: 1}},
			locker:         &mockLocker{},
			users:          &mockUserLister{users: testUsers},
			expectedSweeps: 1,
			expectedReports: []sentReport{
				{to: "admin@example.com", coupons: 2, campaigns: 1},
				{to: "ops@example.com", coupons: 2, campaigns: 1},
			},
			expectReleased: true,
		},
		{
			name:           "nothing expired sends no email",
			sweeper:        &mockSweeper{report: &services.ExpiryReport{}},
			locker:         &mockLocker{},
			users:          &mockUserLister{users: testUsers},
			expectedSweeps: 1,
			expectReleased: true,
		},
		{
			name:           "partial failure still reports what changed",
			sweeper:        &mockSweeper{report: &services.ExpiryReport{Campaigns: 3}, err: errors.New("coupons down")},
			locker:         &mockLocker{},
			users:          &mockUserLister{users: testUsers[:1]},
			expectedSweeps: 1,
			expectedReports: []sentReport{
				{to: "admin@example.com", campaigns: 3},
			},
			expectReleased: true,
		},
		{
			name:           "lock held by another replica",
			sweeper:        &mockSweeper{report: &services.ExpiryReport{Coupons: 1}},
			locker:         &mockLocker{held: true, owner: "other"},
			users:          &mockUserLister{users: testUsers},
			expectedSweeps: 0,
		},
		{
			name:           "lock error skips the run",
			sweeper:        &mockSweeper{report: &services.ExpiryReport{Coupons: 1}},
			locker:         &mockLocker{acquireErr: errors.New("redis down")},
			users:          &mockUserLister{users: testUsers},
			expectedSweeps: 0,
		},
		{
			name:           "admin lookup failure sends nothing",
			sweeper:        &mockSweeper{report: &services.ExpiryReport{Coupons: 1}},
			locker:         &mockLocker{},
			users:          &mockUserLister{err: errors.New("db down")},
			expectedSweeps: 1,
			expectReleased: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &mockReportNotifier{}
			s := NewScheduler("@every 1h", tt.sweeper, tt.users, notifier, tt.locker, zap.NewNop())

			s.runOnce(context.Background())

			assert.Equal(t, tt.expectedSweeps, tt.sweeper.calls)
			assert.Equal(t, tt.expectedReports, notifier.sent)
			assert.Equal(t, tt.expectReleased, tt.locker.released)
		})
	}
}

func TestScheduler_Start(t *testing.T) {
	t.Run("invalid cron expression", func(t *testing.T) {
		s := NewScheduler("every now and then", &mockSweeper{}, &mockUserLister{}, &mockReportNotifier{}, &mockLocker{}, zap.NewNop())

		assert.Error(t, s.Start())
	})

	t.Run("valid expression starts and stops", func(t *testing.T) {
		s := NewScheduler("*/15 * * * *", &mockSweeper{}, &mockUserLister{}, &mockReportNotifier{}, &mockLocker{}, zap.NewNop())

		require.NoError(t, s.Start())
		assert.Len(t, s.cron.Entries(), 1)
		s.Stop()
	})
}

func TestScheduler_CleanTokens(t *testing.T) {
	now := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	t.Run("deletes tokens older than the refresh lifetime", func(t *testing.T) {
		cleaner := &mockTokenCleaner{deleted: 4}
		locker := &mockLocker{}
		s := NewScheduler("@every 1h", &mockSweeper{}, &mockUserLister{}, &mockReportNotifier{}, locker, zap.NewNop()).
			WithTokenCleanup(cleaner, 24*time.Hour)
		s.now = func() time.Time { return now }

		s.cleanTokens(context.Background())

		assert.Equal(t, 1, cleaner.calls)
		assert.Equal(t, now.Add(-24*time.Hour), cleaner.cutoff)
		assert.True(t, locker.released)
	})

	t.Run("lock held skips cleanup", func(t *testing.T) {
		cleaner := &mockTokenCleaner{}
		s := NewScheduler("@every 1h", &mockSweeper{}, &mockUserLister{}, &mockReportNotifier{}, &mockLocker{held: true, owner: "other"}, zap.NewNop()).
			WithTokenCleanup(cleaner, time.Hour)

		s.cleanTokens(context.Background())

		assert.Zero(t, cleaner.calls)
	})

	t.Run("start registers the cleanup entry", func(t *testing.T) {
		s := NewScheduler("*/15 * * * *", &mockSweeper{}, &mockUserLister{}, &mockReportNotifier{}, &mockLocker{}, zap.NewNop()).
			WithTokenCleanup(&mockTokenCleaner{}, time.Hour)

		require.NoError(t, s.Start())
		assert.Len(t, s.cron.Entries(), 2)
		s.Stop()
	})
}
