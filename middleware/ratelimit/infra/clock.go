package infra

import "time"

type clock struct {
	now func() time.Time
}

func (c clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// PolicyOption configura aspectos comuns às políticas (hoje só o relógio).
type PolicyOption func(*clock)

// WithClock troca a fonte de tempo. Usado em testes para controlar a janela.
func WithClock(now func() time.Time) PolicyOption {
	return func(c *clock) { c.now = now }
}

func newClock(opts []PolicyOption) clock {
	var c clock
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// startJanitor chama fn a cada `every` até o ctx encerrar.
func startJanitor(ctx DoneContext, every time.Duration, fn func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn()
			}
		}
	}()
}
