package infra

import (
	"sync"
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

// Record é o estado por cliente usado pelas políticas de janela.
//
// Cada política usa apenas os campos que precisa: Count/WindowStart (janela fixa),
// Blocked (janela com bloqueio) e Log (sliding log).
type Record struct {
	Count       int
	WindowStart time.Time
	Blocked     bool
	Log         []time.Time

	lastSeen time.Time
}

// WindowStore é o mapa em memória chave -> Record com read-modify-write atômico
// e limpeza periódica de chaves inativas.
type WindowStore struct {
	mu           sync.Mutex
	entries      map[domain.Key]*Record
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type WindowStoreOption func(*WindowStore)

// WithIdleTTL define após quanto tempo sem requisições um Record pode ser removido.
// As políticas garantem (via MinIdleTTL) que o valor nunca fique abaixo da maior
// janela, então a remoção é invisível para a decisão.
func WithIdleTTL(d time.Duration) WindowStoreOption {
	return func(s *WindowStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) WindowStoreOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

func WithStoreClock(now func() time.Time) WindowStoreOption {
	return func(s *WindowStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewWindowStore(opts ...WindowStoreOption) *WindowStore {
	s := &WindowStore{
		entries:      make(map[domain.Key]*Record),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// MinIdleTTL eleva o idleTTL para pelo menos d.
func (s *WindowStore) MinIdleTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idleTTL < d {
		s.idleTTL = d
	}
}

// Update executa fn sobre o Record de key com o lock do store adquirido.
// O relógio (nowFn, ou o do store quando nil) é lido já dentro do lock, então
// os instantes vistos por chamadas sucessivas nunca andam para trás.
// O Record é criado sob demanda (Count=0, WindowStart=now).
func (s *WindowStore) Update(key domain.Key, nowFn func() time.Time, fn func(rec *Record, now time.Time) domain.Decision) domain.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nowFn == nil {
		nowFn = s.now
	}
	now := nowFn()

	rec, ok := s.entries[key]
	if !ok {
		rec = &Record{WindowStart: now}
		s.entries[key] = rec
	}
	rec.lastSeen = now
	return fn(rec, now)
}

// Len devolve o número de chaves rastreadas.
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *WindowStore) Cleanup() {
	s.CleanupAt(s.now())
}

func (s *WindowStore) CleanupAt(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.idleTTL)
	for k, rec := range s.entries {
		if rec.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
