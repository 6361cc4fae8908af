package infra

import (
	"sync"
	"time"

	"governance-gateway/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// TokenBucket é uma implementação baseada em token-bucket (x/time/rate)
// com cache por chave e limpeza periódica.
//
// O burst é o limite do papel e a reposição é limite/janela, então em regime o
// cliente tem a mesma vazão da janela fixa, sem o "degrau" na virada da janela.
type TokenBucket struct {
	clock
	mu           sync.Mutex
	entries      map[domain.Key]*bucketEntry
	limits       domain.RoleLimits
	window       time.Duration
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	limit    int
	lastSeen time.Time
}

func NewTokenBucket(limits domain.RoleLimits, window time.Duration, opts ...PolicyOption) *TokenBucket {
	if limits == nil {
		limits = domain.DefaultRoleLimits()
	}
	return &TokenBucket{
		clock:        newClock(opts),
		entries:      make(map[domain.Key]*bucketEntry),
		limits:       limits,
		window:       window,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
}

func (p *TokenBucket) SetCleanup(idleTTL, every time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idleTTL = max(idleTTL, p.window)
	p.cleanupEvery = every
}

func (p *TokenBucket) Check(key domain.Key, role domain.Role) domain.Decision {
	limit := p.limits.Limit(role)
	now := p.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	ent, ok := p.entries[key]
	if !ok || ent.limit != limit {
		ent = &bucketEntry{lim: rate.NewLimiter(p.refill(limit), limit), limit: limit}
		p.entries[key] = ent
	}
	ent.lastSeen = now

	if ent.lim.AllowN(now, 1) {
		return domain.Decision{
			Allowed:   true,
			Limit:     limit,
			Remaining: int(ent.lim.TokensAt(now)),
		}
	}

	r := ent.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return domain.Decision{
		Reason:     domain.ReasonLimitExceeded,
		Limit:      limit,
		RetryAfter: delay,
	}
}

func (p *TokenBucket) refill(limit int) rate.Limit {
	if p.window <= 0 {
		return rate.Inf
	}
	return rate.Every(p.window / time.Duration(limit))
}

func (p *TokenBucket) Cleanup() {
	now := p.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := now.Add(-p.idleTTL)
	for k, ent := range p.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(p.entries, k)
		}
	}
}

func (p *TokenBucket) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// StartJanitor inicia a limpeza periódica de buckets inativos.
func (p *TokenBucket) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, p.cleanupEvery, p.Cleanup)
}
