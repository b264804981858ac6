package idgen

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"urlshort/internal/apperr"
)

// CounterStore is the slice of the primary store the allocator needs:
// atomically reserving the next contiguous range out of id_counter.
type CounterStore interface {
	ReserveRange(ctx context.Context, counterName string, batchSize int64) (start int64, err error)
}

// sqlCounterStore implements CounterStore against the id_counter table
// using a read-current/write-next/commit pattern over raw database/sql.
type sqlCounterStore struct {
	db *sql.DB
}

func NewSQLCounterStore(db *sql.DB) CounterStore {
	return &sqlCounterStore{db: db}
}

func (s *sqlCounterStore) ReserveRange(ctx context.Context, counterName string, batchSize int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT next_value FROM id_counter WHERE name = $1 FOR UPDATE`, counterName,
	).Scan(&current)
	if err == sql.ErrNoRows {
		current = 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO id_counter (name, next_value) VALUES ($1, $2)`, counterName, current+batchSize,
		); err != nil {
			return 0, fmt.Errorf("insert counter: %w", err)
		}
	} else if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE id_counter SET next_value = $1 WHERE name = $2`, current+batchSize, counterName,
		); err != nil {
			return 0, fmt.Errorf("update counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return current, nil
}

// AllocatorConfig configures a CounterAllocator's range size and
// reservation retry budget.
type AllocatorConfig struct {
	CounterName string
	BatchSize   int64
	MaxRetries  uint64
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultAllocatorConfig() AllocatorConfig {
	return AllocatorConfig{
		CounterName: "short_code",
		BatchSize:   10_000,
		MaxRetries:  3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// CounterAllocator owns a single in-memory [cursor, end) window and
// refills it from the store under a mutex.
type CounterAllocator struct {
	store  CounterStore
	cfg    AllocatorConfig
	mu     sync.Mutex
	cursor int64
	end    int64
}

func NewCounterAllocator(store CounterStore, cfg AllocatorConfig) *CounterAllocator {
	return &CounterAllocator{store: store, cfg: cfg}
}

// Next returns the next monotonically increasing counter value,
// refilling the in-memory range from the store when exhausted.
func (a *CounterAllocator) Next(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cursor >= a.end {
		if err := a.refillLocked(ctx); err != nil {
			return 0, err
		}
	}
	id := a.cursor
	a.cursor++
	return id, nil
}

// PreAllocate forces the allocator to acquire its first range eagerly,
// typically called at startup.
func (a *CounterAllocator) PreAllocate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor < a.end {
		return nil
	}
	return a.refillLocked(ctx)
}

func (a *CounterAllocator) refillLocked(ctx context.Context) error {
	backoff := retry.NewExponential(a.cfg.BaseDelay)
	backoff = retry.WithMaxRetries(a.cfg.MaxRetries, backoff)
	backoff = retry.WithCappedDuration(a.cfg.MaxDelay, backoff)

	var start int64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := a.store.ReserveRange(ctx, a.cfg.CounterName, a.cfg.BatchSize)
		if err != nil {
			return retry.RetryableError(err)
		}
		start = v
		return nil
	})
	if err != nil {
		return apperr.AllocatorUnavailable(err)
	}
	a.cursor = start
	a.end = start + a.cfg.BatchSize
	return nil
}

// Remaining reports how many ids are left in the current in-memory
// range.
func (a *CounterAllocator) Remaining() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.end - a.cursor
}

// CurrentRange reports the in-memory [cursor, end) window.
func (a *CounterAllocator) CurrentRange() (cursor, end int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor, a.end
}
