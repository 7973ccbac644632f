package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
)

// HousekeepingService periodically deletes expired token records and
// lockout counters, so stores that see no logins still shrink.
type HousekeepingService struct {
	Store    store.Store
	Counters store.Counters
	Logger   *slog.Logger
	Interval time.Duration
	Timeout  time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a worker. counters may differ from
// st.Counters() when lockout state lives in Redis. A non-positive interval
// defaults to 1 hour.
func NewHousekeepingService(st store.Store, counters store.Counters, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if counters == nil {
		counters = st.Counters()
	}

	return &HousekeepingService{
		Store:    st,
		Counters: counters,
		Logger:   logger,
		Interval: interval,
		Timeout:  30 * time.Second,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a cleanup immediately, then every Interval until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each deletion is independent; one failing does not
// stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	now := s.Now()

	records, err := s.Store.TokenRecords().DeleteExpiredTokenRecords(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired token records", "error", err)
	}

	counters, err := s.Counters.DeleteExpiredCounters(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired counters", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"token_records", records,
		"counters", counters,
	)
}
