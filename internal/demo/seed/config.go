package seed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	DatabasePath string
	Overwrite    bool
	Seed         int64
	// Years of order history ending at the seeding time.
	Years int

	Customers    int
	Employees    int
	Suppliers    int
	Authors      int
	Books        int
	Shippers     int
	Orders       int
	Interactions int
}

func DefaultConfig() Config {
	return Config{
		DatabasePath: "data/windforest.db",
		Seed:         time.Now().UTC().UnixNano(),
		Years:        3,
		Customers:    1000,
		Employees:    50,
		Suppliers:    100,
		Authors:      500,
		Books:        5000,
		Shippers:     10,
		Orders:       10000,
		Interactions: 2000,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if raw, ok := lookup("DATABASE_PATH"); ok {
		cfg.DatabasePath = strings.TrimPrefix(strings.TrimSpace(raw), "sqlite:///")
	}
	err := errors.Join(
		applyString(lookup, "QUERYCHAT_DATABASE_PATH", &cfg.DatabasePath),
		applyBool(lookup, "QUERYCHAT_SEED_OVERWRITE", &cfg.Overwrite),
		applyInt64(lookup, "QUERYCHAT_SEED", &cfg.Seed),
		applyInt(lookup, "QUERYCHAT_SEED_YEARS", &cfg.Years),
		applyInt(lookup, "QUERYCHAT_SEED_CUSTOMERS", &cfg.Customers),
		applyInt(lookup, "QUERYCHAT_SEED_EMPLOYEES", &cfg.Employees),
		applyInt(lookup, "QUERYCHAT_SEED_SUPPLIERS", &cfg.Suppliers),
		applyInt(lookup, "QUERYCHAT_SEED_AUTHORS", &cfg.Authors),
		applyInt(lookup, "QUERYCHAT_SEED_BOOKS", &cfg.Books),
		applyInt(lookup, "QUERYCHAT_SEED_SHIPPERS", &cfg.Shippers),
		applyInt(lookup, "QUERYCHAT_SEED_ORDERS", &cfg.Orders),
		applyInt(lookup, "QUERYCHAT_SEED_INTERACTIONS", &cfg.Interactions),
	)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Years <= 0 {
		return fmt.Errorf("QUERYCHAT_SEED_YEARS must be > 0")
	}
	positive := []struct {
		name  string
		value int
	}{
		{"QUERYCHAT_SEED_CUSTOMERS", c.Customers},
		{"QUERYCHAT_SEED_EMPLOYEES", c.Employees},
		{"QUERYCHAT_SEED_SUPPLIERS", c.Suppliers},
		{"QUERYCHAT_SEED_AUTHORS", c.Authors},
		{"QUERYCHAT_SEED_BOOKS", c.Books},
		{"QUERYCHAT_SEED_SHIPPERS", c.Shippers},
		{"QUERYCHAT_SEED_ORDERS", c.Orders},
	}
	for _, field := range positive {
		if field.value <= 0 {
			return fmt.Errorf("%s must be > 0", field.name)
		}
	}
	if c.Interactions < 0 {
		return fmt.Errorf("QUERYCHAT_SEED_INTERACTIONS must be >= 0")
	}
	return nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
