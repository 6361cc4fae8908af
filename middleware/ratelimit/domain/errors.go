package domain

import (
	"errors"
	"time"
)

var (
	// ErrRateLimitExceeded cobre as negações das políticas de janela (com ou sem bloqueio).
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrPermissionDenied é a sinalização do sliding log.
	ErrPermissionDenied = errors.New("permission denied")
)

// LimitError carrega o motivo da negação e é comparável com errors.Is contra
// ErrRateLimitExceeded / ErrPermissionDenied.
type LimitError struct {
	Reason     Reason
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	if msg := e.Reason.Message(); msg != "" {
		return msg
	}
	return ErrRateLimitExceeded.Error()
}

func (e *LimitError) Unwrap() error {
	if e.Reason == ReasonPermissionDenied {
		return ErrPermissionDenied
	}
	return ErrRateLimitExceeded
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrPermissionDenied)
}
