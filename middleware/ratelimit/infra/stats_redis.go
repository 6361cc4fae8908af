package infra

import (
	"context"
	"strings"
	"time"

	"governance-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

const (
	BucketMinute = "minute"
	BucketNone   = "none"
)

// RedisStatsStore grava contadores de decisão em hashes Redis:
//
//	<prefix>:total                 allowed|denied (sem expiração)
//	<prefix>:minute:<YYYYMMDDhhmm> allowed|denied
//	<prefix>:route                 "<METHOD> <path>:<outcome>"
//	<prefix>:role                  "<role>:<outcome>"
//	<prefix>:reason                motivo da negação
//	<prefix>:key:<client>          allowed|denied (opcional)
//
// Os contadores de rate limit continuam em memória; o Redis só agrega estatística.
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix    string
	ttl       time.Duration // séries por minuto e por cliente
	bucket    string
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ": "); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: BucketMinute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// hashIncr é um HINCRBY pendente; expire indica série com TTL.
type hashIncr struct {
	key    string
	field  string
	expire bool
}

func outcome(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func (s *RedisStatsStore) increments(ev domain.StatsEvent, at time.Time) []hashIncr {
	out := outcome(ev.Allowed)
	incs := []hashIncr{
		{key: s.prefix + ":total", field: out},
		{key: s.prefix + ":role", field: ev.Role.String() + ":" + out},
	}

	if s.bucket == BucketMinute {
		incs = append(incs, hashIncr{
			key:    s.prefix + ":minute:" + at.UTC().Format("200601021504"),
			field:  out,
			expire: true,
		})
	}

	if route := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path)); route != "" {
		incs = append(incs, hashIncr{key: s.prefix + ":route", field: route + ":" + out})
	}

	if !ev.Allowed {
		incs = append(incs, hashIncr{key: s.prefix + ":reason", field: ev.Reason.String()})
	}

	if k := strings.TrimSpace(string(ev.Key)); s.trackKeys && k != "" {
		incs = append(incs, hashIncr{key: s.prefix + ":key:" + k, field: out, expire: true})
	}
	return incs
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, inc := range s.increments(ev, at) {
			pipe.HIncrBy(ctx, inc.key, inc.field, 1)
			if inc.expire && s.ttl > 0 {
				pipe.Expire(ctx, inc.key, s.ttl)
			}
		}
		return nil
	})
	return err
}
