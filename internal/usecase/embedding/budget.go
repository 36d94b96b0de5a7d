package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/triage/internal/domain"
)

// BudgetAction decides what happens once a token cap is reached.
type BudgetAction string

const (
	// BudgetActionWarn logs and lets the call through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject refuses the call, so searches degrade to keyword matching.
	BudgetActionReject BudgetAction = "reject"
)

// persistTimeout bounds the write-behind of spent tokens.
const persistTimeout = 2 * time.Second

// BudgetConfig holds token caps. A zero limit is unlimited.
type BudgetConfig struct {
	Provider     string
	DailyLimit   int64
	MonthlyLimit int64
	Action       BudgetAction
}

// BudgetStore persists counters so replicas share one spend.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// window is one calendar period of spend.
type window struct {
	period string // "day" or "month"
	layout string
	limit  int64
	used   int64
	start  time.Time
	trunc  func(time.Time) time.Time
}

// roll restarts the window when now lies in a later period.
func (w *window) roll(now time.Time) {
	if cur := w.trunc(now); cur.After(w.start) {
		w.start = cur
		w.used = 0
	}
}

func (w *window) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

// remaining is -1 when unlimited and never negative otherwise.
func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

func (w *window) key(provider string, t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, provider, w.period, t.Format(w.layout))
}

// BudgetTracker keeps daily and monthly token spend in memory and writes it
// behind to an optional store. Check reads memory only.
type BudgetTracker struct {
	mu      sync.Mutex
	cfg     BudgetConfig
	daily   window
	monthly window
	store   BudgetStore
	now     func() time.Time
	logger  *zap.Logger
}

// NewBudgetTracker creates a tracker. An empty action means warn.
func NewBudgetTracker(cfg BudgetConfig, logger *zap.Logger) *BudgetTracker {
	if cfg.Action == "" {
		cfg.Action = BudgetActionWarn
	}
	b := &BudgetTracker{
		cfg:     cfg,
		daily:   window{period: "day", layout: "2006-01-02", limit: cfg.DailyLimit, trunc: truncateToDay},
		monthly: window{period: "month", layout: "2006-01", limit: cfg.MonthlyLimit, trunc: truncateToMonth},
		now:     time.Now,
		logger:  logger,
	}
	b.startAt(b.now())
	return b
}

// startAt pins both windows to the periods containing t.
func (b *BudgetTracker) startAt(t time.Time) {
	t = t.UTC()
	b.daily.start = truncateToDay(t)
	b.monthly.start = truncateToMonth(t)
}

// WithStore attaches store and seeds the counters from it. Load failures are
// logged and leave the counters at zero.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now().UTC()
	for _, w := range []*window{&b.daily, &b.monthly} {
		key := w.key(b.cfg.Provider, now)
		used, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Budget counter not loaded", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = used
	}
	b.logger.Info("Budget counters loaded",
		zap.String("provider", b.cfg.Provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

func (b *BudgetTracker) dailyKey(t time.Time) string   { return b.daily.key(b.cfg.Provider, t) }
func (b *BudgetTracker) monthlyKey(t time.Time) string { return b.monthly.key(b.cfg.Provider, t) }

// Check returns domain.ErrEmbeddingQuotaExceeded when a cap is reached and the
// action is reject. With warn it only logs.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()

	if !b.daily.exceeded() && !b.monthly.exceeded() {
		return nil
	}
	if b.cfg.Action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.cfg.Provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record charges tokens to both windows and persists them when a store is attached.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.roll()
	b.daily.used += tokens
	b.monthly.used += tokens
	store := b.store
	now := b.now().UTC()
	keys := []string{b.dailyKey(now), b.monthlyKey(now)}
	b.mu.Unlock()

	if store == nil {
		return
	}
	// detached: a cancelled search is still billed
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Budget counter not persisted", zap.String("key", key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	return b.read(func() int64 { return b.daily.remaining() })
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	return b.read(func() int64 { return b.monthly.remaining() })
}

// DailyUsed returns tokens spent today.
func (b *BudgetTracker) DailyUsed() int64 {
	return b.read(func() int64 { return b.daily.used })
}

// MonthlyUsed returns tokens spent this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	return b.read(func() int64 { return b.monthly.used })
}

// DailyLimit returns the daily cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.cfg.DailyLimit }

// MonthlyLimit returns the monthly cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.cfg.MonthlyLimit }

func (b *BudgetTracker) read(f func() int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return f()
}

// roll resets windows whose period has ended. Caller holds mu.
func (b *BudgetTracker) roll() {
	now := b.now().UTC()
	b.daily.roll(now)
	b.monthly.roll(now)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
