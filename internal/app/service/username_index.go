package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/linkyoself/linkyoself/internal/app/repository"
	"go.uber.org/zap"
)

const (
	defaultIndexCapacity = 100_000
	defaultIndexFPRate   = 0.01
	indexRefreshTimeout  = time.Minute
)

// UsernameIndex is an in-process Bloom filter of taken usernames. A negative
// answer is definite only for users up to the last id the index has seen, so
// callers Sync before trusting it. It answers "maybe" for everything until
// Load succeeds.
type UsernameIndex struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	capacity uint
	fpRate   float64
	ready    bool
	lastID   uint
}

// NewUsernameIndex sizes the filter for capacity names at the given false positive rate.
func NewUsernameIndex(capacity uint, fpRate float64) *UsernameIndex {
	if capacity == 0 {
		capacity = defaultIndexCapacity
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = defaultIndexFPRate
	}
	return &UsernameIndex{
		filter:   bloom.NewWithEstimates(capacity, fpRate),
		capacity: capacity,
		fpRate:   fpRate,
	}
}

// Load rebuilds the filter from every stored username.
func (i *UsernameIndex) Load(ctx context.Context, users repository.UserRepository) error {
	if i == nil {
		return nil
	}
	rows, err := users.ListUsernamesSince(ctx, 0)
	if err != nil {
		return fmt.Errorf("load usernames: %w", err)
	}

	filter := bloom.NewWithEstimates(i.capacity, i.fpRate)
	var lastID uint
	for _, u := range rows {
		filter.AddString(u.Username)
		if u.ID > lastID {
			lastID = u.ID
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.filter = filter
	i.lastID = lastID
	i.ready = true
	return nil
}

// Sync adds the usernames stored since the last Load or Sync, whichever
// process wrote them.
func (i *UsernameIndex) Sync(ctx context.Context, users repository.UserRepository) error {
	if i == nil {
		return nil
	}
	i.mu.RLock()
	ready, after := i.ready, i.lastID
	i.mu.RUnlock()
	if !ready {
		return i.Load(ctx, users)
	}

	rows, err := users.ListUsernamesSince(ctx, after)
	if err != nil {
		return fmt.Errorf("sync usernames: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, u := range rows {
		i.filter.AddString(u.Username)
		if u.ID > i.lastID {
			i.lastID = u.ID
		}
	}
	return nil
}

// Add records a newly taken username.
func (i *UsernameIndex) Add(username string) {
	if i == nil {
		return
	}
	i.mu.Lock()
	i.filter.AddString(username)
	i.mu.Unlock()
}

// MayContain reports false only when username is certainly not among the
// usernames the index has seen.
func (i *UsernameIndex) MayContain(username string) bool {
	if i == nil {
		return true
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	if !i.ready {
		return true
	}
	return i.filter.TestString(username)
}

// UsernameIndexRefresher periodically rebuilds a UsernameIndex so rows
// committed out of id order are picked up.
type UsernameIndexRefresher struct {
	logger   *zap.Logger
	index    *UsernameIndex
	users    repository.UserRepository
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewUsernameIndexRefresher creates a refresher for index.
func NewUsernameIndexRefresher(logger *zap.Logger, index *UsernameIndex, users repository.UserRepository, interval time.Duration) *UsernameIndexRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &UsernameIndexRefresher{
		logger:   logger,
		index:    index,
		users:    users,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic rebuild.
func (r *UsernameIndexRefresher) Start() {
	go r.run()
}

// Stop stops the periodic rebuild. It is safe to call more than once.
func (r *UsernameIndexRefresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

func (r *UsernameIndexRefresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refresh()
		case <-r.stopChan:
			return
		}
	}
}

func (r *UsernameIndexRefresher) refresh() bool {
	ctx, cancel := context.WithTimeout(context.Background(), indexRefreshTimeout)
	defer cancel()

	if err := r.index.Load(ctx, r.users); err != nil {
		r.logger.Warn("failed to rebuild username index", zap.Error(err))
		return false
	}
	return true
}
