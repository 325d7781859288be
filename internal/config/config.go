package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"arbdesk/internal/model"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Fees     FeesConfig     `mapstructure:"fees"`
	Bot      model.Settings `mapstructure:"bot"`
	Advisory AdvisoryConfig `mapstructure:"advisory"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// LogConfig defines the slog handler settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EngineConfig defines the simulation and execution settings.
type EngineConfig struct {
	InitialBalance float64       `mapstructure:"initial_balance"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
	Debounce       time.Duration `mapstructure:"debounce"`
	TradeLogLimit  int           `mapstructure:"trade_log_limit"`
	PnLWindow      int           `mapstructure:"pnl_window"`
	Seed           uint64        `mapstructure:"seed"`
	SeedJitter     float64       `mapstructure:"seed_jitter"`
	TickJitter     float64       `mapstructure:"tick_jitter"`
}

// FeesConfig defines the trading cost model.
type FeesConfig struct {
	Rate            float64 `mapstructure:"rate"`
	FixedNetworkFee float64 `mapstructure:"fixed_network_fee"`
}

// AdvisoryConfig defines the advisory service connection and polling.
type AdvisoryConfig struct {
	URL               string        `mapstructure:"url"`
	APIKey            string        `mapstructure:"api_key"`
	Interval          time.Duration `mapstructure:"interval"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Retries           int           `mapstructure:"retries"`
	Backoff           time.Duration `mapstructure:"backoff"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	TopOpportunities  int           `mapstructure:"top_opportunities"`
	TopMarkets        int           `mapstructure:"top_markets"`
}

// DatabaseConfig defines the trade journal connection settings.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Buffer   int    `mapstructure:"buffer"`
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// RedisConfig defines the event publisher connection settings.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CatalogConfig restricts the simulated assets and exchanges. Empty means all.
type CatalogConfig struct {
	Assets    []string `mapstructure:"assets"`
	Exchanges []string `mapstructure:"exchanges"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	config.Bot = NormalizeSettings(config.Bot)
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("engine.initial_balance", 10000.0)
	v.SetDefault("engine.tick_interval", "800ms")
	v.SetDefault("engine.status_interval", "1s")
	v.SetDefault("engine.debounce", "200ms")
	v.SetDefault("engine.trade_log_limit", 50)
	v.SetDefault("engine.pnl_window", 20)
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.seed_jitter", 0.02)
	v.SetDefault("engine.tick_jitter", 0.004)

	v.SetDefault("fees.rate", 0.001)
	v.SetDefault("fees.fixed_network_fee", 0.001)

	defaults := DefaultSettings()
	v.SetDefault("bot.min_spread_percent", defaults.MinSpreadPercent)
	v.SetDefault("bot.max_slippage_percent", defaults.MaxSlippagePercent)
	v.SetDefault("bot.max_concurrent_trades", defaults.MaxConcurrentTrades)
	v.SetDefault("bot.daily_stop_loss", defaults.DailyStopLoss)
	v.SetDefault("bot.enable_advisory", defaults.EnableAdvisory)
	v.SetDefault("bot.trading_mode", string(defaults.TradingMode))
	v.SetDefault("bot.trade_amount", defaults.TradeAmount)
	v.SetDefault("bot.auto_trade", defaults.AutoTrade)

	v.SetDefault("advisory.url", "")
	v.SetDefault("advisory.api_key", "")
	v.SetDefault("advisory.interval", "45s")
	v.SetDefault("advisory.cooldown", "60s")
	v.SetDefault("advisory.timeout", "15s")
	v.SetDefault("advisory.retries", 3)
	v.SetDefault("advisory.backoff", "2s")
	v.SetDefault("advisory.requests_per_minute", 10)
	v.SetDefault("advisory.top_opportunities", 3)
	v.SetDefault("advisory.top_markets", 5)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "arbdesk")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.buffer", 256)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "arbdesk")
	v.SetDefault("redis.ttl", "5s")

	v.SetDefault("catalog.assets", []string{})
	v.SetDefault("catalog.exchanges", []string{})
}
