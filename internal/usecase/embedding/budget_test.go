package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
)

func TestBudgetTrackerRejectWhenExceeded(t *testing.T) {
	b := NewBudgetTracker("openai", 100, 0, BudgetActionReject, zap.NewNop())

	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("fresh budget should allow requests: %v", err)
	}

	b.Record(100)
	if err := b.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Errorf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestBudgetTrackerWarnAllowsThrough(t *testing.T) {
	b := NewBudgetTracker("openai", 10, 0, BudgetActionWarn, zap.NewNop())
	b.Record(50)

	if err := b.Check(context.Background()); err != nil {
		t.Errorf("warn mode must not block requests, got %v", err)
	}
}

func TestBudgetTrackerRemaining(t *testing.T) {
	b := NewBudgetTracker("openai", 100, 1000, BudgetActionReject, zap.NewNop())
	b.Record(30)

	if got := b.RemainingDaily(); got != 70 {
		t.Errorf("RemainingDaily = %d, want 70", got)
	}
	if got := b.RemainingMonthly(); got != 970 {
		t.Errorf("RemainingMonthly = %d, want 970", got)
	}

	unlimited := NewBudgetTracker("openai", 0, 0, BudgetActionReject, zap.NewNop())
	if got := unlimited.RemainingDaily(); got != -1 {
		t.Errorf("unlimited RemainingDaily = %d, want -1", got)
	}
}

type recordingStore struct {
	incremented map[string]int64
}

func (r *recordingStore) IncrBy(_ context.Context, key string, val int64) error {
	if r.incremented == nil {
		r.incremented = make(map[string]int64)
	}
	r.incremented[key] += val
	return nil
}

func (r *recordingStore) Get(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func TestBudgetTrackerWriteBehind(t *testing.T) {
	store := &recordingStore{}
	b := NewBudgetTracker("openai", 0, 0, BudgetActionWarn, zap.NewNop()).
		WithStore(context.Background(), store)

	b.Record(42)

	if len(store.incremented) != 2 {
		t.Fatalf("expected daily and monthly keys persisted, got %v", store.incremented)
	}
	for key, val := range store.incremented {
		if val != 42 {
			t.Errorf("key %s persisted %d, want 42", key, val)
		}
	}
}
