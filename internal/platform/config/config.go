package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, with dots in keys replaced
// by underscores: processor.batch_size is DETECTOR_PROCESSOR_BATCH_SIZE.
const EnvPrefix = "DETECTOR"

// FileEnv names an optional YAML file read before the environment.
const FileEnv = "DETECTOR_CONFIG_FILE"

// Config is the full runtime configuration of the detector.
type Config struct {
	Addr       string           `mapstructure:"addr"`
	Log        LogConfig        `mapstructure:"log"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Validation ValidationConfig `mapstructure:"validation"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ProcessorConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	Workers   int           `mapstructure:"workers"`
	Interval  time.Duration `mapstructure:"interval"`
}

type EvaluationConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type ValidationConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type ResolverConfig struct {
	ChunkSize int           `mapstructure:"chunk_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Endpoint locates one upstream service.
type Endpoint struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

type BreakerConfig struct {
	Failures    uint32        `mapstructure:"failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type UpstreamConfig struct {
	Persons      Endpoint      `mapstructure:"persons"`
	Devices      Endpoint      `mapstructure:"devices"`
	Accounts     Endpoint      `mapstructure:"accounts"`
	Transactions Endpoint      `mapstructure:"transactions"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	PageSize     int           `mapstructure:"page_size"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

// RedisConfig configures the optional tick lease store. An empty URL
// disables Redis.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	LeaseTTL     time.Duration `mapstructure:"lease_ttl"`
	LeaseRenewal time.Duration `mapstructure:"lease_renewal"`
}

// TracingConfig configures span export. With Enabled false spans are still
// recorded in-process but never exported. An empty Endpoint leaves the
// exporter to the standard OTEL_EXPORTER_OTLP_* variables.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8081")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("processor.batch_size", 50)
	v.SetDefault("processor.workers", 10)
	v.SetDefault("processor.interval", 100*time.Millisecond)
	v.SetDefault("evaluation.timeout", 5*time.Second)
	v.SetDefault("validation.timeout", 5*time.Second)
	v.SetDefault("resolver.chunk_size", 25)
	v.SetDefault("resolver.timeout", 5*time.Second)

	for _, name := range []string{"persons", "devices", "accounts", "transactions"} {
		v.SetDefault("upstream."+name+".url", "http://localhost:8080")
		v.SetDefault("upstream."+name+".token", "")
	}
	v.SetDefault("upstream.http_timeout", 10*time.Second)
	v.SetDefault("upstream.page_size", 25)
	v.SetDefault("upstream.breaker.failures", 5)
	v.SetDefault("upstream.breaker.open_timeout", 10*time.Second)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.lease_ttl", 60*time.Second)
	v.SetDefault("redis.lease_renewal", 10*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "detector")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load builds the configuration from defaults, the optional file named by
// DETECTOR_CONFIG_FILE and DETECTOR_* environment variables, in increasing
// precedence.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv(FileEnv); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects sizes and durations that would stall or disable the loop.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, n int) {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, n))
		}
	}
	positiveDuration := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	positive("processor.batch_size", c.Processor.BatchSize)
	positive("processor.workers", c.Processor.Workers)
	positiveDuration("processor.interval", c.Processor.Interval)
	positiveDuration("evaluation.timeout", c.Evaluation.Timeout)
	positiveDuration("validation.timeout", c.Validation.Timeout)
	positive("resolver.chunk_size", c.Resolver.ChunkSize)
	positiveDuration("resolver.timeout", c.Resolver.Timeout)
	positiveDuration("upstream.http_timeout", c.Upstream.HTTPTimeout)
	positive("upstream.page_size", c.Upstream.PageSize)
	positive("upstream.breaker.failures", int(c.Upstream.Breaker.Failures))
	positiveDuration("upstream.breaker.open_timeout", c.Upstream.Breaker.OpenTimeout)

	endpoints := map[string]Endpoint{
		"persons":      c.Upstream.Persons,
		"devices":      c.Upstream.Devices,
		"accounts":     c.Upstream.Accounts,
		"transactions": c.Upstream.Transactions,
	}
	for name, ep := range endpoints {
		if ep.URL == "" {
			errs = append(errs, fmt.Errorf("upstream.%s.url is required", name))
		}
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %g", c.Tracing.SampleRatio))
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		errs = append(errs, errors.New("tracing.service_name is required"))
	}

	if c.Redis.URL != "" && len(errs) == 0 {
		errs = append(errs, c.validateLease()...)
	}

	return errors.Join(errs...)
}

// validateLease expects the sizes and timeouts it reads to be positive.
func (c Config) validateLease() []error {
	var errs []error
	if c.Redis.LeaseTTL <= 0 {
		errs = append(errs, fmt.Errorf("redis.lease_ttl must be positive, got %s", c.Redis.LeaseTTL))
	}
	if c.Redis.LeaseRenewal <= 0 {
		errs = append(errs, fmt.Errorf("redis.lease_renewal must be positive, got %s", c.Redis.LeaseRenewal))
	}
	if len(errs) > 0 {
		return errs
	}

	if c.Redis.LeaseRenewal >= c.Redis.LeaseTTL {
		errs = append(errs, fmt.Errorf("redis.lease_renewal (%s) must be shorter than redis.lease_ttl (%s)",
			c.Redis.LeaseRenewal, c.Redis.LeaseTTL))
	}
	if longest := c.LongestTick(); c.Redis.LeaseTTL < longest {
		errs = append(errs, fmt.Errorf("redis.lease_ttl (%s) must cover the longest tick (%s)",
			c.Redis.LeaseTTL, longest))
	}
	return errs
}

// LongestTick bounds one tick from above: every fetch page and one dispatch
// call running to the HTTP timeout, and every wave of workers running to the
// evaluation timeout.
func (c Config) LongestTick() time.Duration {
	pages := ceilDiv(c.Processor.BatchSize, c.Upstream.PageSize)
	waves := ceilDiv(c.Processor.BatchSize, c.Processor.Workers)
	return time.Duration(pages+1)*c.Upstream.HTTPTimeout + time.Duration(waves)*c.Evaluation.Timeout
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
