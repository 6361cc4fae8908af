package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"governance-gateway/middleware/identity"
	"governance-gateway/middleware/ratelimit/application"
	"governance-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type KeyFunc func(r *http.Request) domain.Key

type RoleFunc func(r *http.Request) domain.Role

type Options struct {
	Policy              domain.Policy
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	RoleFn              RoleFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	Logger              *zap.Logger
}

// DefaultKeyFunc usa o id do usuário autenticado; sem ele, o valor de keyHeader
// (ex.: X-Api-Key) quando presente e, por último, o endereço de origem.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) domain.Key {
		if _, ok := identity.FromContext(r.Context()); !ok && keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.Key("header:" + v)
			}
		}
		return identity.ClientKey(r, trustXFF)
	}
}

// Middleware aplica a política escolhida a cada requisição.
//
// A chave é resolvida aqui mesmo, a cada requisição, sem reaproveitar nada de
// outros estágios da cadeia. Negações viram 429 com corpo
// {"error": "<mensagem>"} e Retry-After; o próximo handler não é chamado.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.RoleFn == nil {
		opts.RoleFn = identity.RoleOf
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.Service{
		Policy:     opts.Policy,
		RetryAfter: opts.RetryAfter,
	}
	// falha de stats é best-effort: loga no máximo uma vez por minuto
	statsWarn := &rate.Sometimes{First: 1, Interval: time.Minute}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			role := opts.RoleFn(r)

			dec := svc.Decide(key, role)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", string(key))
				if dec.Limit > 0 {
					w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limit))
					w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
				}
			}

			if opts.Stats != nil {
				err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     key,
					Role:    role,
					Allowed: dec.Allowed,
					Reason:  dec.Reason,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				})
				if err != nil {
					statsWarn.Do(func() {
						opts.Logger.Warn("rate limit stats record failed", zap.Error(err))
					})
				}
			}

			if !dec.Allowed {
				opts.Logger.Debug("request rate limited",
					zap.String("key", string(key)),
					zap.Stringer("role", role),
					zap.Stringer("reason", dec.Reason),
				)
				w.Header().Set("Retry-After", formatRetryAfter(dec.RetryAfter))
				writeJSONError(w, opts.RejectStatus, dec.Reason.Message())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
