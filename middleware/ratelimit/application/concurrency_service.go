package application

import (
	"context"
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

// ConcurrencyService decide se uma requisição ganha uma vaga no pool, sem saber
// nada sobre HTTP. Sem pool configurado, tudo passa.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire espera por uma vaga até ctx encerrar ou, com AcquireTimeout > 0, no
// máximo AcquireTimeout. Com ok=false nada foi adquirido e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	return s.Pool.Acquire(ctx)
}

// InFlight devolve quantas vagas estão ocupadas agora.
func (s ConcurrencyService) InFlight() int {
	if s.Pool == nil {
		return 0
	}
	return s.Pool.InUse()
}
