// Package config centraliza o carregamento de configurações a partir do ambiente
// (e de um .env opcional).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"governance-gateway/middleware/chain"
	"governance-gateway/middleware/ratelimit"
	"governance-gateway/middleware/ratelimit/domain"
)

type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	UpstreamURL string `env:"UPSTREAM_URL"`
	JWTSecret   string `env:"JWT_SECRET"`

	ChainOrder    string `env:"CHAIN_ORDER" envDefault:"log-then-limit"`
	RequestLogDir string `env:"REQUEST_LOG_DIR" envDefault:"logs"`

	Rate        RateConfig
	Concurrency ConcurrencyConfig
	Stats       StatsConfig
	Metrics     MetricsConfig
}

type RateConfig struct {
	Enabled          bool           `env:"RATE_ENABLED" envDefault:"true"`
	Policy           string         `env:"RATE_POLICY" envDefault:"fixed-window"`
	RoleLimits       map[string]int `env:"RATE_ROLE_LIMITS" envKeyValSeparator:"=" envDefault:"gold=10,silver=5,bronze=2,unauthenticated=1"`
	Window           time.Duration  `env:"RATE_WINDOW" envDefault:"60s"`
	BlockLimit       int            `env:"RATE_BLOCK_LIMIT" envDefault:"5"`
	BlockCooldown    time.Duration  `env:"RATE_BLOCK_COOLDOWN" envDefault:"60s"`
	SlidingThreshold int            `env:"RATE_SLIDING_THRESHOLD" envDefault:"5"`
	IdleTTL          time.Duration  `env:"RATE_IDLE_TTL" envDefault:"15m"`
	CleanupEvery     time.Duration  `env:"RATE_CLEANUP_EVERY" envDefault:"2m"`
	KeyHeader        string         `env:"RATE_KEY_HEADER"`
	TrustXFF         bool           `env:"TRUST_XFF" envDefault:"true"`
	RetryAfter       time.Duration  `env:"RETRY_AFTER" envDefault:"1s"`
	AddHeaders       bool           `env:"ADD_RATELIMIT_HEADERS" envDefault:"false"`
}

type ConcurrencyConfig struct {
	Max     int           `env:"CONCURRENCY_MAX" envDefault:"100"`
	Timeout time.Duration `env:"CONCURRENCY_TIMEOUT" envDefault:"0s"`
}

type StatsConfig struct {
	Enabled       bool          `env:"RATE_STATS_ENABLED" envDefault:"false"`
	RedisAddr     string        `env:"RATE_STATS_REDIS_ADDR"`
	RedisPassword string        `env:"RATE_STATS_REDIS_PASSWORD"`
	RedisDB       int           `env:"RATE_STATS_REDIS_DB" envDefault:"0"`
	Prefix        string        `env:"RATE_STATS_PREFIX" envDefault:"ratelimit:stats"`
	TTL           time.Duration `env:"RATE_STATS_TTL" envDefault:"24h"`
	Bucket        string        `env:"RATE_STATS_BUCKET" envDefault:"minute"`
	TrackKeys     bool          `env:"RATE_STATS_TRACK_KEYS" envDefault:"false"`
}

type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Load lê o .env (se existir) e o ambiente do processo.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom lê apenas as variáveis de environ. Usado em testes.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := ratelimit.ParsePolicyKind(c.Rate.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := chain.ParseOrder(c.ChainOrder); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RoleLimits(); err != nil {
		errs = append(errs, err)
	}
	if c.Rate.Window <= 0 {
		errs = append(errs, errors.New("RATE_WINDOW must be > 0"))
	}
	if c.Rate.BlockLimit <= 0 {
		errs = append(errs, errors.New("RATE_BLOCK_LIMIT must be > 0"))
	}
	if c.Rate.BlockCooldown <= 0 {
		errs = append(errs, errors.New("RATE_BLOCK_COOLDOWN must be > 0"))
	}
	if c.Rate.SlidingThreshold <= 0 {
		errs = append(errs, errors.New("RATE_SLIDING_THRESHOLD must be > 0"))
	}
	if c.Concurrency.Max < 0 {
		errs = append(errs, errors.New("CONCURRENCY_MAX must be >= 0"))
	}
	if c.Stats.Enabled && strings.TrimSpace(c.Stats.RedisAddr) == "" {
		errs = append(errs, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true"))
	}
	return errors.Join(errs...)
}

// RoleLimits converte RATE_ROLE_LIMITS para a tabela do domínio.
func (c Config) RoleLimits() (domain.RoleLimits, error) {
	out := make(domain.RoleLimits, len(c.Rate.RoleLimits))
	for name, limit := range c.Rate.RoleLimits {
		role := domain.ParseRole(name)
		if role == domain.RoleUnknown {
			return nil, fmt.Errorf("RATE_ROLE_LIMITS: unknown role %q", name)
		}
		if limit <= 0 {
			return nil, fmt.Errorf("RATE_ROLE_LIMITS: limit for %q must be > 0", name)
		}
		out[role] = limit
	}
	return out, nil
}

func (c Config) PolicyConfig() (ratelimit.PolicyConfig, error) {
	kind, err := ratelimit.ParsePolicyKind(c.Rate.Policy)
	if err != nil {
		return ratelimit.PolicyConfig{}, err
	}
	limits, err := c.RoleLimits()
	if err != nil {
		return ratelimit.PolicyConfig{}, err
	}
	return ratelimit.PolicyConfig{
		Kind:             kind,
		RoleLimits:       limits,
		Window:           c.Rate.Window,
		BlockLimit:       c.Rate.BlockLimit,
		BlockCooldown:    c.Rate.BlockCooldown,
		SlidingThreshold: c.Rate.SlidingThreshold,
		IdleTTL:          c.Rate.IdleTTL,
		CleanupEvery:     c.Rate.CleanupEvery,
	}, nil
}

func (c Config) Order() chain.Order {
	o, err := chain.ParseOrder(c.ChainOrder)
	if err != nil {
		return chain.LogThenLimit
	}
	return o
}
