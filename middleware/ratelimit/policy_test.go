package ratelimit

import (
	"context"
	"testing"
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

func TestParsePolicyKind(t *testing.T) {
	for in, want := range map[string]PolicyKind{
		"":                   PolicyFixedWindow,
		"fixed-window":       PolicyFixedWindow,
		"Fixed-Window-Block": PolicyFixedWindowBlock,
		" sliding-log ":      PolicySlidingLog,
		"token-bucket":       PolicyTokenBucket,
	} {
		got, err := ParsePolicyKind(in)
		if err != nil || got != want {
			t.Fatalf("ParsePolicyKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePolicyKind("leaky-bucket"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestNewLimiter_EveryKindSharesOneInterface(t *testing.T) {
	kinds := map[PolicyKind]domain.Reason{
		PolicyFixedWindow:      domain.ReasonLimitExceeded,
		PolicyFixedWindowBlock: domain.ReasonBlockTripped,
		PolicySlidingLog:       domain.ReasonPermissionDenied,
		PolicyTokenBucket:      domain.ReasonLimitExceeded,
	}

	for kind, reason := range kinds {
		clk := newFakeClock()
		lim := newLimiter(t, kind, clk)
		if lim.Kind != kind {
			t.Fatalf("expected kind %q, got %q", kind, lim.Kind)
		}

		// silver = 5 nas políticas por papel; 5 fixo nas demais
		var last domain.Decision
		allowed := 0
		for i := 0; i < 6; i++ {
			last = lim.Check("k", domain.RoleSilver)
			if last.Allowed {
				allowed++
			}
		}
		if allowed != 5 {
			t.Fatalf("%s: expected 5 allowed, got %d", kind, allowed)
		}
		if last.Reason != reason {
			t.Fatalf("%s: expected reason %s, got %s", kind, reason, last.Reason)
		}
	}
}

func TestNewLimiter_UnknownKind(t *testing.T) {
	if _, err := NewLimiter(PolicyConfig{Kind: "nope"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLimiter_StartJanitorStopsWithContext(t *testing.T) {
	cfg := DefaultPolicyConfig()
	cfg.CleanupEvery = time.Millisecond
	lim, err := NewLimiter(cfg)
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lim.StartJanitor(ctx)
	lim.Check("k", domain.RoleGold)
	time.Sleep(5 * time.Millisecond)
	cancel()
}
