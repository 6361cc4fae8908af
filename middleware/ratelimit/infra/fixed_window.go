package infra

import (
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

// FixedWindow é a janela fixa por papel, com reset "preguiçoso": a janela só
// recomeça quando chega uma requisição depois de `window` desde o último reset.
// Não há bloqueio; cada requisição é reavaliada.
type FixedWindow struct {
	clock
	store  *WindowStore
	limits domain.RoleLimits
	window time.Duration
}

func NewFixedWindow(store *WindowStore, limits domain.RoleLimits, window time.Duration, opts ...PolicyOption) *FixedWindow {
	if limits == nil {
		limits = domain.DefaultRoleLimits()
	}
	store.MinIdleTTL(window)
	return &FixedWindow{
		clock:  newClock(opts),
		store:  store,
		limits: limits,
		window: window,
	}
}

func (p *FixedWindow) Check(key domain.Key, role domain.Role) domain.Decision {
	limit := p.limits.Limit(role)

	return p.store.Update(key, p.Now, func(rec *Record, now time.Time) domain.Decision {
		if now.Sub(rec.WindowStart) > p.window {
			rec.Count = 0
			rec.WindowStart = now
		}

		// o incremento acima do limite não é desfeito
		rec.Count++

		dec := domain.Decision{Limit: limit, Remaining: remaining(limit, rec.Count)}
		if rec.Count > limit {
			dec.Reason = domain.ReasonLimitExceeded
			dec.RetryAfter = rec.WindowStart.Add(p.window).Sub(now)
			return dec
		}
		dec.Allowed = true
		return dec
	})
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}
