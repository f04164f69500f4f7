// Package config содержит логику чтения конфигурации сервиса boostmart.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultTaxRate    = "0.08"
)

// Config содержит параметры конфигурации сервиса boostmart.
type Config struct {
	RunAddress           string          `env:"RUN_ADDRESS"`
	DatabaseURI          string          `env:"DATABASE_URI"`
	PaymentSystemAddress string          `env:"PAYMENT_SYSTEM_ADDRESS"`
	AuthSecret           string          `env:"AUTH_SECRET"`
	TaxRate              decimal.Decimal `env:"TAX_RATE"`

	Currency     string `env:"CURRENCY" envDefault:"USD"`
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	AMQPURL      string `env:"AMQP_URL"`
	EventsTopic  string `env:"EVENTS_TOPIC" envDefault:"boostmart.orders"`
	SeedCatalog  bool   `env:"SEED_CATALOG" envDefault:"true"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg
	_, taxFromEnv := os.LookupEnv("TAX_RATE")

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.PaymentSystemAddress, "p", "", "payment system address")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for verifying auth tokens")
	taxRate := flag.String("t", defaultTaxRate, "tax rate applied at checkout")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.PaymentSystemAddress != "" {
		cfg.PaymentSystemAddress = fromEnv.PaymentSystemAddress
	}
	if fromEnv.AuthSecret != "" {
		cfg.AuthSecret = fromEnv.AuthSecret
	}

	if taxFromEnv {
		cfg.TaxRate = fromEnv.TaxRate
	} else {
		rate, err := decimal.NewFromString(*taxRate)
		if err != nil {
			return nil, fmt.Errorf("parse tax rate: %w", err)
		}
		cfg.TaxRate = rate
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative: %s", cfg.TaxRate)
	}

	return cfg, nil
}
