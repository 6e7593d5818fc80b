// Package config loads server settings from config.yaml, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type FinanceConfig struct {
	BaseCurrency   string `mapstructure:"base_currency"`
	BudgetMatching string `mapstructure:"budget_matching"`
	DebtFunding    string `mapstructure:"debt_funding"`
}

type FXConfig struct {
	// Rates are units of each currency per one base unit.
	Rates map[string]float64 `mapstructure:"rates"`

	// Overrides pin a pair, keyed "FROM:TO".
	Overrides map[string]float64 `mapstructure:"overrides"`
}

type OutboxConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	Offline       bool          `mapstructure:"offline"`
}

type SchedulerConfig struct {
	// DebtStatus is the cron spec of the overdue debt refresh.
	DebtStatus string `mapstructure:"debt_status"`

	// Recompute is the cron spec of the full re-derivation pass.
	Recompute string `mapstructure:"recompute"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Finance   FinanceConfig   `mapstructure:"finance"`
	FX        FXConfig        `mapstructure:"fx"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// Override is one manual FX pair.
type Override struct {
	From, To string
	Rate     float64
}

// ParsedOverrides returns the FX overrides as pairs. Malformed keys are skipped.
func (c FXConfig) ParsedOverrides() []Override {
	var out []Override
	for key, rate := range c.Overrides {
		from, to, ok := strings.Cut(key, ":")
		if !ok || from == "" || to == "" {
			continue
		}
		out = append(out, Override{From: strings.ToUpper(from), To: strings.ToUpper(to), Rate: rate})
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", "./data/leora.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("finance.base_currency", "USD")
	v.SetDefault("finance.budget_matching", "linked")
	v.SetDefault("finance.debt_funding", "claim")
	v.SetDefault("outbox.flush_interval", 2*time.Second)
	v.SetDefault("outbox.offline", false)
	v.SetDefault("scheduler.debt_status", "@every 1h")
	v.SetDefault("scheduler.recompute", "@daily")
}

// Load reads configuration from path (or ./config.yaml when path is empty).
// A missing config file is not an error; defaults and LEORA_* environment
// variables still apply. A .env file in the working directory is loaded first
// when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. LEORA_SERVER_PORT=9000
	v.SetEnvPrefix("LEORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values viper cannot.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %s", strconv.Itoa(c.Server.Port))
	}
	switch c.Finance.BudgetMatching {
	case "", "linked", "currency":
	default:
		return fmt.Errorf("invalid finance.budget_matching: %q", c.Finance.BudgetMatching)
	}
	switch c.Finance.DebtFunding {
	case "", "claim", "cash_flow":
	default:
		return fmt.Errorf("invalid finance.debt_funding: %q", c.Finance.DebtFunding)
	}
	if c.Outbox.FlushInterval <= 0 {
		return fmt.Errorf("invalid outbox.flush_interval: %s", c.Outbox.FlushInterval)
	}
	for code, rate := range c.FX.Rates {
		if rate <= 0 {
			return fmt.Errorf("invalid fx rate for %s: %v", code, rate)
		}
	}
	return nil
}
