// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: mapa em memória chave -> Record com check-and-increment atômico
//   - FixedWindow, BlockWindow, SlidingLog: políticas de janela sobre o WindowStore
//   - TokenBucket: token bucket por chave usando golang.org/x/time/rate
//   - MemoryStatsStore, RedisStatsStore, PrometheusStatsStore: estatísticas das decisões
//   - ChanPool: semáforo simples para limite de concorrência
package infra
