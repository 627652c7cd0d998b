package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/macrolog/internal/errors"
)

func TestPruneHistory(t *testing.T) {
	env, clock := newTestEnv(t)
	ctx := context.Background()
	seedDays(t, env, clock)

	// today 03-13, cutoff 03-11: only 03-10 is strictly older
	out, err := PruneHistory(ctx, env, PruneInput{OlderThanDays: 2})
	if err != nil {
		t.Fatalf("PruneHistory failed: %v", err)
	}
	if out.Pruned != 1 || out.Dates[0] != "2024-03-10" || out.Cutoff != "2024-03-11" {
		t.Errorf("PruneHistory = %+v", out)
	}
	if out.Message != "Permanently deleted 1 day (older than 2 days)" {
		t.Errorf("Message = %q", out.Message)
	}

	days, err := ListDays(ctx, env, ListDaysInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(days.Items) != 3 {
		t.Errorf("days after prune = %d, want 3", len(days.Items))
	}

	out, err = PruneHistory(ctx, env, PruneInput{OlderThanDays: 2})
	if err != nil {
		t.Fatal(err)
	}
	if out.Pruned != 0 || out.Message != "No days to prune" || out.Dates == nil {
		t.Errorf("second prune = %+v", out)
	}
}

func TestPruneHistory_RequiresDays(t *testing.T) {
	env, _ := newTestEnv(t)
	for _, n := range []int{0, -3} {
		if _, err := PruneHistory(context.Background(), env, PruneInput{OlderThanDays: n}); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("OlderThanDays=%d: %v, want INVALID_REQUEST", n, err)
		}
	}
}
