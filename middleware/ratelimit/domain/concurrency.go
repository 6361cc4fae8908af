package domain

import "context"

// SlotPool limita quantas requisições ficam em andamento ao mesmo tempo.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar; o release
// devolvido pode ser chamado mais de uma vez, só a primeira conta.
// InUse/Cap existem para expor ocupação em métricas.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
	Cap() int
}
