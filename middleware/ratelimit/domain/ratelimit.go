package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica o "bucket" de estado de um cliente: id do usuário autenticado
// ou endereço de origem (best-effort).
type Key string

// Policy decide se uma requisição de `key` (com o papel `role`) é permitida agora.
//
// Implementações: janela fixa por papel, janela fixa com bloqueio, sliding log,
// token bucket. Todas devem serializar o check-and-increment por chave.
type Policy interface {
	Check(key Key, role Role) Decision
}

// PolicyFunc adapta uma função comum para Policy.
type PolicyFunc func(key Key, role Role) Decision

func (f PolicyFunc) Check(key Key, role Role) Decision { return f(key, role) }

// Reason explica o motivo de uma negação.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonLimitExceeded: janela fixa estourada (política sem bloqueio).
	ReasonLimitExceeded
	// ReasonBlockTripped: a requisição que estourou o limite e iniciou o bloqueio.
	ReasonBlockTripped
	// ReasonBlocked: cliente ainda dentro do período de bloqueio.
	ReasonBlocked
	// ReasonPermissionDenied: sliding log cheio.
	ReasonPermissionDenied
)

const (
	MessageLimitExceeded    = "Request limit exceeded. Try again later."
	MessageBlockTripped     = "Request limit exceeded. You are blocked for 1 minute."
	MessageBlocked          = "You are temporarily blocked due to too many requests. Try again in a minute."
	MessagePermissionDenied = "Permission denied. Too many requests in the last minute."
)

// Message devolve o texto exposto ao cliente no corpo JSON da resposta 429.
func (r Reason) Message() string {
	switch r {
	case ReasonLimitExceeded:
		return MessageLimitExceeded
	case ReasonBlockTripped:
		return MessageBlockTripped
	case ReasonBlocked:
		return MessageBlocked
	case ReasonPermissionDenied:
		return MessagePermissionDenied
	default:
		return ""
	}
}

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonLimitExceeded:
		return "limit_exceeded"
	case ReasonBlockTripped:
		return "block_tripped"
	case ReasonBlocked:
		return "blocked"
	case ReasonPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

type Decision struct {
	Allowed bool
	Reason  Reason

	// Limit é o número de requisições permitidas na janela (0 = desconhecido).
	Limit int
	// Remaining é quanto ainda resta na janela atual (nunca negativo).
	Remaining int

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Err traduz uma negação para o erro tipado correspondente (nil quando permitido).
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &LimitError{Reason: d.Reason, RetryAfter: d.RetryAfter}
}
