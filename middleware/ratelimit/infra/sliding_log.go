package infra

import (
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

// SlidingLog guarda o timestamp de cada requisição aceita e conta exatamente as
// que caem nos últimos `window`. Mais preciso que as janelas fixas, mas custa
// O(threshold) em memória e CPU por chave.
type SlidingLog struct {
	clock
	store     *WindowStore
	threshold int
	window    time.Duration
}

func NewSlidingLog(store *WindowStore, threshold int, window time.Duration, opts ...PolicyOption) *SlidingLog {
	if threshold <= 0 {
		threshold = 5
	}
	store.MinIdleTTL(window)
	return &SlidingLog{
		clock:     newClock(opts),
		store:     store,
		threshold: threshold,
		window:    window,
	}
}

func (p *SlidingLog) Check(key domain.Key, _ domain.Role) domain.Decision {
	return p.store.Update(key, p.Now, func(rec *Record, now time.Time) domain.Decision {
		cutoff := now.Add(-p.window)
		i := 0
		for i < len(rec.Log) && rec.Log[i].Before(cutoff) {
			i++
		}
		if i > 0 {
			rec.Log = append(rec.Log[:0], rec.Log[i:]...)
		}

		if len(rec.Log) >= p.threshold {
			// tentativa negada não entra no log
			return domain.Decision{
				Reason:     domain.ReasonPermissionDenied,
				Limit:      p.threshold,
				RetryAfter: rec.Log[0].Sub(cutoff),
			}
		}

		rec.Log = append(rec.Log, now)
		return domain.Decision{
			Allowed:   true,
			Limit:     p.threshold,
			Remaining: remaining(p.threshold, len(rec.Log)),
		}
	})
}
