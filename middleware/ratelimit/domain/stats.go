package domain

import (
	"context"
	"time"
)

// StatsEvent descreve uma decisão do limiter para fins de estatística.
//
// Method/Path são opcionais. Key e Path têm cardinalidade alta; as
// implementações decidem se guardam por cliente.
type StatsEvent struct {
	Key     Key
	Role    Role
	Allowed bool
	Reason  Reason

	Method string
	Path   string
	At     time.Time
}

// StatsStore recebe um evento por decisão. Erros são best-effort: quem chama
// registra e segue atendendo.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
