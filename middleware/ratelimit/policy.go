package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"governance-gateway/middleware/ratelimit/domain"
	"governance-gateway/middleware/ratelimit/infra"
)

type PolicyKind string

const (
	PolicyFixedWindow      PolicyKind = "fixed-window"
	PolicyFixedWindowBlock PolicyKind = "fixed-window-block"
	PolicySlidingLog       PolicyKind = "sliding-log"
	PolicyTokenBucket      PolicyKind = "token-bucket"
)

func ParsePolicyKind(s string) (PolicyKind, error) {
	switch k := PolicyKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PolicyFixedWindow, PolicyFixedWindowBlock, PolicySlidingLog, PolicyTokenBucket:
		return k, nil
	case "":
		return PolicyFixedWindow, nil
	default:
		return "", fmt.Errorf("ratelimit: unknown policy %q", s)
	}
}

type PolicyConfig struct {
	Kind PolicyKind

	// RoleLimits vale para fixed-window e token-bucket.
	RoleLimits domain.RoleLimits
	Window     time.Duration

	// fixed-window-block
	BlockLimit    int
	BlockCooldown time.Duration

	// sliding-log
	SlidingThreshold int

	IdleTTL time.Duration
	// CleanupEvery <= 0 desliga o janitor.
	CleanupEvery time.Duration

	// Clock substitui time.Now (testes).
	Clock func() time.Time
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Kind:             PolicyFixedWindow,
		RoleLimits:       domain.DefaultRoleLimits(),
		Window:           60 * time.Second,
		BlockLimit:       5,
		BlockCooldown:    60 * time.Second,
		SlidingThreshold: 5,
		IdleTTL:          15 * time.Minute,
		CleanupEvery:     2 * time.Minute,
	}
}

// Limiter é a política ativa junto com a limpeza periódica do seu estado.
type Limiter struct {
	domain.Policy
	Kind PolicyKind

	janitor func(infra.DoneContext)
}

// StartJanitor começa a remover chaves inativas. Pare cancelando o contexto.
func (l *Limiter) StartJanitor(ctx context.Context) {
	if l.janitor != nil {
		l.janitor(ctx)
	}
}

// NewLimiter monta a política escolhida. Campos zerados usam DefaultPolicyConfig.
func NewLimiter(cfg PolicyConfig) (*Limiter, error) {
	def := DefaultPolicyConfig()
	if cfg.Kind == "" {
		cfg.Kind = def.Kind
	}
	if len(cfg.RoleLimits) == 0 {
		cfg.RoleLimits = def.RoleLimits
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.BlockLimit <= 0 {
		cfg.BlockLimit = def.BlockLimit
	}
	if cfg.BlockCooldown <= 0 {
		cfg.BlockCooldown = def.BlockCooldown
	}
	if cfg.SlidingThreshold <= 0 {
		cfg.SlidingThreshold = def.SlidingThreshold
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}

	var popts []infra.PolicyOption
	if cfg.Clock != nil {
		popts = append(popts, infra.WithClock(cfg.Clock))
	}

	if cfg.Kind == PolicyTokenBucket {
		tb := infra.NewTokenBucket(cfg.RoleLimits, cfg.Window, popts...)
		tb.SetCleanup(cfg.IdleTTL, cfg.CleanupEvery)
		return &Limiter{Policy: tb, Kind: cfg.Kind, janitor: tb.StartJanitor}, nil
	}

	store := infra.NewWindowStore(
		infra.WithIdleTTL(cfg.IdleTTL),
		infra.WithCleanupEvery(cfg.CleanupEvery),
		infra.WithStoreClock(cfg.Clock),
	)

	var p domain.Policy
	switch cfg.Kind {
	case PolicyFixedWindow:
		p = infra.NewFixedWindow(store, cfg.RoleLimits, cfg.Window, popts...)
	case PolicyFixedWindowBlock:
		p = infra.NewBlockWindow(store, cfg.BlockLimit, cfg.Window, cfg.BlockCooldown, popts...)
	case PolicySlidingLog:
		p = infra.NewSlidingLog(store, cfg.SlidingThreshold, cfg.Window, popts...)
	default:
		return nil, fmt.Errorf("ratelimit: unknown policy %q", cfg.Kind)
	}
	return &Limiter{Policy: p, Kind: cfg.Kind, janitor: store.StartJanitor}, nil
}
