// Package chain monta a ordem dos middlewares de governança em volta do handler.
//
// A ordem importa: com LogThenLimit toda requisição é registrada, inclusive as
// negadas; com LimitThenLog a negação encerra a cadeia antes do log.
package chain

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type Order string

const (
	LogThenLimit Order = "log-then-limit"
	LimitThenLog Order = "limit-then-log"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case LogThenLimit, LimitThenLog:
		return o, nil
	case "":
		return LogThenLimit, nil
	default:
		return "", fmt.Errorf("chain: unknown order %q", s)
	}
}

// Build devolve os middlewares na ordem pedida (o primeiro é o mais externo).
// Estágios nil são ignorados.
func Build(order Order, logger, limiter func(http.Handler) http.Handler) chi.Middlewares {
	stages := []func(http.Handler) http.Handler{logger, limiter}
	if order == LimitThenLog {
		stages = []func(http.Handler) http.Handler{limiter, logger}
	}

	out := make(chi.Middlewares, 0, len(stages))
	for _, mw := range stages {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

// Wrap aplica os middlewares em h.
func Wrap(h http.Handler, mws chi.Middlewares) http.Handler {
	if len(mws) == 0 {
		return h
	}
	return chi.Chain(mws...).Handler(h)
}
