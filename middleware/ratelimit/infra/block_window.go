package infra

import (
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

// BlockWindow é a janela fixa com limite único (ignora papel) que, ao estourar,
// bloqueia o cliente por `cooldown` independentemente do volume seguinte.
//
// Enquanto bloqueado, nenhuma requisição altera o contador.
type BlockWindow struct {
	clock
	store    *WindowStore
	limit    int
	window   time.Duration
	cooldown time.Duration
}

func NewBlockWindow(store *WindowStore, limit int, window, cooldown time.Duration, opts ...PolicyOption) *BlockWindow {
	if limit <= 0 {
		limit = 5
	}
	store.MinIdleTTL(max(window, cooldown))
	return &BlockWindow{
		clock:    newClock(opts),
		store:    store,
		limit:    limit,
		window:   window,
		cooldown: cooldown,
	}
}

func (p *BlockWindow) Check(key domain.Key, _ domain.Role) domain.Decision {
	return p.store.Update(key, p.Now, func(rec *Record, now time.Time) domain.Decision {
		// WindowStart marca o início do bloqueio enquanto Blocked=true
		if rec.Blocked && now.Sub(rec.WindowStart) > p.cooldown {
			rec.Blocked = false
			rec.Count = 0
			rec.WindowStart = now
		}

		if rec.Blocked {
			return domain.Decision{
				Reason:     domain.ReasonBlocked,
				Limit:      p.limit,
				RetryAfter: rec.WindowStart.Add(p.cooldown).Sub(now),
			}
		}

		if now.Sub(rec.WindowStart) > p.window {
			rec.Count = 0
			rec.WindowStart = now
		}

		rec.Count++
		if rec.Count > p.limit {
			rec.Blocked = true
			rec.WindowStart = now
			return domain.Decision{
				Reason:     domain.ReasonBlockTripped,
				Limit:      p.limit,
				RetryAfter: p.cooldown,
			}
		}

		return domain.Decision{
			Allowed:   true,
			Limit:     p.limit,
			Remaining: remaining(p.limit, rec.Count),
		}
	})
}
