package service

import (
	"context"
	"sync"
	"time"

	"github.com/linkyoself/linkyoself/internal/app/repository"
	"go.uber.org/zap"
)

const reapTimeout = 30 * time.Second

// TokenReaper periodically deletes refresh tokens that have been expired or
// revoked for longer than the grace period.
type TokenReaper struct {
	logger   *zap.Logger
	repo     repository.RefreshTokenRepository
	grace    time.Duration
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTokenReaper creates a new refresh token reaper.
func NewTokenReaper(logger *zap.Logger, repo repository.RefreshTokenRepository, interval, grace time.Duration) *TokenReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if grace < 0 {
		grace = 0
	}
	return &TokenReaper{
		logger:   logger,
		repo:     repo,
		grace:    grace,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic purge.
func (r *TokenReaper) Start() {
	go r.run()
}

// Stop stops the periodic purge. It is safe to call more than once.
func (r *TokenReaper) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

func (r *TokenReaper) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.purge()
		case <-r.stopChan:
			r.logger.Info("refresh token reaper stopped")
			return
		}
	}
}

func (r *TokenReaper) purge() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
	defer cancel()

	cutoff := r.now().Add(-r.grace)
	affected, err := r.repo.PurgeStale(ctx, cutoff)
	if err != nil {
		r.logger.Error("failed to purge stale refresh tokens", zap.Error(err))
		return 0
	}

	if affected > 0 {
		r.logger.Info("purged stale refresh tokens",
			zap.Int64("count", affected),
			zap.Time("cutoff", cutoff),
		)
	}
	return affected
}
