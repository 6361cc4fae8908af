// Package governance monta a cadeia de governança (log de requisição, rate limit
// e limite de concorrência) a partir da configuração. Usado pelos binários em cmd/.
package governance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"governance-gateway/internal/config"
	"governance-gateway/middleware/chain"
	"governance-gateway/middleware/ratelimit"
	"governance-gateway/middleware/ratelimit/domain"
	"governance-gateway/middleware/ratelimit/infra"
	"governance-gateway/middleware/requestlog"
)

type Stack struct {
	Limiter     *ratelimit.Limiter
	Sink        *requestlog.Sink
	Stats       domain.StatsStore
	Pool        domain.SlotPool
	Middlewares chi.Middlewares

	closers []func() error
}

// New monta a cadeia. O janitor do rate limit para quando ctx for cancelado.
//
// Falha ao abrir o arquivo de log não é fatal: o sink vira no-op e o erro é
// logado. Falha ao falar com o Redis de estatísticas é fatal (como no startup
// do gateway original).
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Stack, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stack{}

	sink, err := requestlog.Open(cfg.RequestLogDir)
	if err != nil {
		logger.Warn("request log sink unavailable, requests will not be logged", zap.Error(err))
	}
	s.Sink = sink
	s.closers = append(s.closers, sink.Close)

	stats, err := s.buildStats(ctx, cfg, reg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Stats = stats

	var limiterMW func(http.Handler) http.Handler
	if cfg.Rate.Enabled {
		pc, err := cfg.PolicyConfig()
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		lim, err := ratelimit.NewLimiter(pc)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		lim.StartJanitor(ctx)
		s.Limiter = lim

		limiterMW = ratelimit.Middleware(ratelimit.Options{
			Policy:              lim,
			Stats:               stats,
			KeyHeader:           cfg.Rate.KeyHeader,
			TrustXForwardedFor:  cfg.Rate.TrustXFF,
			RejectStatus:        http.StatusTooManyRequests,
			RetryAfter:          cfg.Rate.RetryAfter,
			AddRateLimitHeaders: cfg.Rate.AddHeaders,
			Logger:              logger,
		})
	}

	loggerMW := requestlog.Middleware(requestlog.Options{
		Sink:               sink,
		TrustXForwardedFor: cfg.Rate.TrustXFF,
	})

	concurrency := ratelimit.ConcurrencyOptions{
		Max:            cfg.Concurrency.Max,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.Concurrency.Timeout,
	}
	if cfg.Concurrency.Max > 0 {
		pool := infra.NewChanPool(cfg.Concurrency.Max)
		concurrency.Pool = pool
		s.Pool = pool
		if cfg.Metrics.Enabled {
			if err := registerPoolGauge(reg, pool); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
	}

	s.Middlewares = append(chain.Build(cfg.Order(), loggerMW, limiterMW),
		ratelimit.ConcurrencyMiddleware(concurrency))

	logger.Info("governance chain ready",
		zap.String("order", string(cfg.Order())),
		zap.Bool("rateEnabled", cfg.Rate.Enabled),
		zap.String("policy", cfg.Rate.Policy),
		zap.Duration("window", cfg.Rate.Window),
		zap.String("keyHeader", cfg.Rate.KeyHeader),
		zap.Bool("trustXFF", cfg.Rate.TrustXFF),
		zap.String("requestLog", sink.Path()),
		zap.Int("concurrencyMax", cfg.Concurrency.Max),
	)
	return s, nil
}

func (s *Stack) buildStats(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (domain.StatsStore, error) {
	var stores infra.MultiStatsStore

	if cfg.Stats.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		s.closers = append(s.closers, rdb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("redis stats ping: %w", err)
		}

		stores = append(stores, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
			infra.WithStatsBucket(cfg.Stats.Bucket),
			infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
		))
	}
	if cfg.Metrics.Enabled {
		stores = append(stores, infra.NewPrometheusStatsStore(reg, "governance"))
	}

	if len(stores) == 0 {
		return nil, nil
	}
	return stores, nil
}

func registerPoolGauge(reg prometheus.Registerer, pool domain.SlotPool) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "governance",
		Name:      "inflight_requests",
		Help:      "Number of requests currently holding a concurrency slot",
	}, func() float64 { return float64(pool.InUse()) })
	if err := reg.Register(g); err != nil {
		return fmt.Errorf("register in-flight gauge: %w", err)
	}
	return nil
}

// Handler envolve h com a cadeia.
func (s *Stack) Handler(h http.Handler) http.Handler {
	return chain.Wrap(h, s.Middlewares)
}

// Close libera recursos na ordem inversa da criação.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
