package application

import (
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Policy     domain.Policy
	RetryAfter time.Duration
}

// Decide consulta a política para (key, role).
//
// Sem política tudo é permitido. Quando a política nega sem sugerir um
// RetryAfter, usa o valor configurado (padrão 1s).
func (s Service) Decide(key domain.Key, role domain.Role) domain.Decision {
	if s.Policy == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	dec := s.Policy.Check(key, role)
	if dec.Allowed {
		dec.RetryAfter = 0
		return dec
	}
	if dec.Reason == domain.ReasonNone {
		dec.Reason = domain.ReasonLimitExceeded
	}
	if dec.RetryAfter <= 0 {
		dec.RetryAfter = s.RetryAfter
	}
	return dec
}
