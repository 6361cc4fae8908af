package requestlog

import (
	"net/http"
	"time"

	"governance-gateway/middleware/identity"
)

type Options struct {
	Sink               *Sink
	TrustXForwardedFor bool
	// Now substitui time.Now (testes).
	Now func() time.Time
}

// Middleware registra a requisição e sempre delega para o próximo handler.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Sink == nil {
		opts.Sink = Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			opts.Sink.Observe(Entry{
				Address:  identity.SourceAddress(r, opts.TrustXForwardedFor),
				Identity: identity.Label(r),
				Time:     opts.Now(),
			})
			next.ServeHTTP(w, r)
		})
	}
}
