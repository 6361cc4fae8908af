package ratelimit

import (
	"net/http"
	"time"

	"governance-gateway/middleware/ratelimit/application"
	"governance-gateway/middleware/ratelimit/domain"
	"governance-gateway/middleware/ratelimit/infra"
)

// ConcurrencyOptions limita quantas requisições ficam em andamento ao mesmo tempo.
// É independente da política de rate limit (que conta requisições por janela).
type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Pool substitui o semáforo padrão (infra.NewChanPool(Max)), por exemplo para
	// expor a ocupação em métricas.
	Pool domain.SlotPool
}

const messageOverloaded = "Too many concurrent requests. Try again later."

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 && opts.Pool == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Max)
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				writeJSONError(w, opts.RejectStatus, messageOverloaded)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
