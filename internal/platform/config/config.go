package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. REGVERIFY_SERVER_ADDR.
const EnvPrefix = "REGVERIFY"

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Partner  PartnerConfig  `mapstructure:"partner"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig is optional; an empty URL disables the Redis tier.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RepairTTL    time.Duration `mapstructure:"repair_ttl"`
}

// PartnerConfig is optional; without a base URL and API key verification
// goes straight to manual review.
type PartnerConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	VerifyPath       string        `mapstructure:"verify_path"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// Configured reports whether the partner registry can be called.
func (p PartnerConfig) Configured() bool {
	return strings.TrimSpace(p.BaseURL) != "" && strings.TrimSpace(p.APIKey) != ""
}

type CacheConfig struct {
	VerifiedTTL   time.Duration `mapstructure:"verified_ttl"`
	UnsettledTTL  time.Duration `mapstructure:"unsettled_ttl"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
}

type QueueConfig struct {
	Turnaround string `mapstructure:"turnaround"`
}

// KafkaConfig is optional; without brokers the alert relay is not started.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	ClientID     string        `mapstructure:"client_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// Enabled reports whether brokers are configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.auto_migrate", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 2*time.Second)
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)
	v.SetDefault("redis.repair_ttl", 7*24*time.Hour)

	v.SetDefault("partner.base_url", "")
	v.SetDefault("partner.verify_path", "/v1/registrations/verify")
	v.SetDefault("partner.api_key", "")
	v.SetDefault("partner.timeout", 10*time.Second)
	v.SetDefault("partner.failure_threshold", 5)
	v.SetDefault("partner.success_threshold", 3)
	v.SetDefault("partner.cooldown", 30*time.Second)

	v.SetDefault("cache.verified_ttl", 30*24*time.Hour)
	v.SetDefault("cache.unsettled_ttl", 24*time.Hour)
	v.SetDefault("cache.lookup_timeout", 2*time.Second)

	v.SetDefault("queue.turnaround", "2-3 business days")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "regverify.compliance-alerts")
	v.SetDefault("kafka.client_id", "regverify")
	v.SetDefault("kafka.poll_interval", 5*time.Second)
	v.SetDefault("kafka.batch_size", 100)
}

// Load reads configuration from defaults, an optional config file and
// REGVERIFY_* environment variables, in increasing order of precedence.
// An empty configFile skips file loading.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.VerifiedTTL <= 0 || c.Cache.UnsettledTTL <= 0 {
		errs = append(errs, errors.New("cache ttls must be positive"))
	}
	if c.Cache.UnsettledTTL > c.Cache.VerifiedTTL {
		errs = append(errs, errors.New("cache.unsettled_ttl must not exceed cache.verified_ttl"))
	}
	if c.Partner.Timeout <= 0 {
		errs = append(errs, errors.New("partner.timeout must be positive"))
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}
