package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// DeletePolicy decides what happens to child rows when their parent is
// deleted. One policy per relationship, enforced uniformly by the store.
type DeletePolicy string

const (
	PolicyReject  DeletePolicy = "reject"
	PolicyCascade DeletePolicy = "cascade"
	PolicySetNull DeletePolicy = "set_null"
)

// OverrunPolicy decides how an expense that pushes a budget past its
// monto_total is handled: reported alongside the write (warn) or refused
// unless the request carries permitir_sobregiro (reject).
type OverrunPolicy string

const (
	OverrunWarn   OverrunPolicy = "warn"
	OverrunReject OverrunPolicy = "reject"
)

type Pool struct {
	MaxOpenConns       int `yaml:"max_open_conns"`
	MaxIdleConns       int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMin int `yaml:"conn_max_lifetime_min"`
}

func (p Pool) ConnMaxLifetime() time.Duration {
	return time.Duration(p.ConnMaxLifetimeMin) * time.Minute
}

type Ledger struct {
	OverrunPolicy    OverrunPolicy           `yaml:"overrun_policy"`
	DeletePolicies   map[string]DeletePolicy `yaml:"delete_policies"`
	LockTimeoutMS    int                     `yaml:"lock_timeout_ms"`
	BusyRetries      int                     `yaml:"busy_retries"`
	AcquireTimeoutMS int                     `yaml:"acquire_timeout_ms"`
}

func (l Ledger) LockTimeout() time.Duration {
	return time.Duration(l.LockTimeoutMS) * time.Millisecond
}

func (l Ledger) AcquireTimeout() time.Duration {
	return time.Duration(l.AcquireTimeoutMS) * time.Millisecond
}

type Config struct {
	Port        string `yaml:"-"`
	DatabaseURL string `yaml:"-"`

	AMQPURL      string `yaml:"-"`
	AMQPExchange string `yaml:"amqp_exchange"`

	RateRPS   float64 `yaml:"rate_rps"`
	RateBurst int     `yaml:"rate_burst"`

	CORSOrigins []string `yaml:"cors_origins"`

	Pool   Pool   `yaml:"pool"`
	Ledger Ledger `yaml:"ledger"`
}

// DefaultDeletePolicies is the per-relationship policy table. Keys are
// "<parent_table>.<child_table>". A YAML file may override individual
// entries; unknown keys are rejected by Validate.
func DefaultDeletePolicies() map[string]DeletePolicy {
	return map[string]DeletePolicy{
		"bancos.cuentas":              PolicyReject,
		"centros_costos.presupuestos": PolicyReject,
		"centros_costos.gastos":       PolicySetNull,
		"presupuestos.gastos":         PolicySetNull,
		"presupuestos.balance":        PolicySetNull,
		"clientes.ingresos":           PolicySetNull,
		"proveedores.gastos":          PolicySetNull,
		"cuentas.ingresos":            PolicySetNull,
		"cuentas.gastos":              PolicySetNull,
		"balance.estados_financieros": PolicySetNull,
		"ingresos.recibos":            PolicyCascade,
		"gastos.recibos":              PolicyCascade,
		"proyectos.inversiones":       PolicyReject,
	}
}

// Load builds the configuration from the environment plus an optional YAML
// file named by CONTASYNC_CONFIG (defaults to contasync.yaml when present).
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "5050"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "contasync"),
		RateRPS:      getEnvFloat("RATE_RPS", 25),
		RateBurst:    getEnvInt("RATE_BURST", 50),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:5174"}),
		Pool: Pool{
			MaxOpenConns:       20,
			MaxIdleConns:       20,
			ConnMaxLifetimeMin: 30,
		},
		Ledger: Ledger{
			OverrunPolicy:    OverrunWarn,
			DeletePolicies:   DefaultDeletePolicies(),
			LockTimeoutMS:    3000,
			BusyRetries:      3,
			AcquireTimeoutMS: 1000,
		},
	}

	path := os.Getenv("CONTASYNC_CONFIG")
	if path == "" {
		if _, err := os.Stat("contasync.yaml"); err == nil {
			path = "contasync.yaml"
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	// Unmarshal into a shadow struct so file policies overlay the defaults
	// instead of replacing the whole table.
	var file struct {
		AMQPExchange string   `yaml:"amqp_exchange"`
		RateRPS      *float64 `yaml:"rate_rps"`
		RateBurst    *int     `yaml:"rate_burst"`
		CORSOrigins  []string `yaml:"cors_origins"`
		Pool         *Pool    `yaml:"pool"`
		Ledger       struct {
			OverrunPolicy    OverrunPolicy           `yaml:"overrun_policy"`
			DeletePolicies   map[string]DeletePolicy `yaml:"delete_policies"`
			LockTimeoutMS    *int                    `yaml:"lock_timeout_ms"`
			BusyRetries      *int                    `yaml:"busy_retries"`
			AcquireTimeoutMS *int                    `yaml:"acquire_timeout_ms"`
		} `yaml:"ledger"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.AMQPExchange != "" {
		c.AMQPExchange = file.AMQPExchange
	}
	if file.RateRPS != nil {
		c.RateRPS = *file.RateRPS
	}
	if file.RateBurst != nil {
		c.RateBurst = *file.RateBurst
	}
	if len(file.CORSOrigins) > 0 {
		c.CORSOrigins = file.CORSOrigins
	}
	if file.Pool != nil {
		c.Pool = *file.Pool
	}
	if file.Ledger.OverrunPolicy != "" {
		c.Ledger.OverrunPolicy = file.Ledger.OverrunPolicy
	}
	if file.Ledger.LockTimeoutMS != nil {
		c.Ledger.LockTimeoutMS = *file.Ledger.LockTimeoutMS
	}
	if file.Ledger.BusyRetries != nil {
		c.Ledger.BusyRetries = *file.Ledger.BusyRetries
	}
	if file.Ledger.AcquireTimeoutMS != nil {
		c.Ledger.AcquireTimeoutMS = *file.Ledger.AcquireTimeoutMS
	}
	for rel, pol := range file.Ledger.DeletePolicies {
		c.Ledger.DeletePolicies[rel] = pol
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q: must be a number", c.Port)
	}
	switch c.Ledger.OverrunPolicy {
	case OverrunWarn, OverrunReject:
	default:
		return fmt.Errorf("invalid overrun_policy %q: must be warn or reject", c.Ledger.OverrunPolicy)
	}
	known := DefaultDeletePolicies()
	for rel, pol := range c.Ledger.DeletePolicies {
		if _, ok := known[rel]; !ok {
			return fmt.Errorf("unknown delete_policies relationship %q", rel)
		}
		switch pol {
		case PolicyReject, PolicyCascade, PolicySetNull:
		default:
			return fmt.Errorf("invalid delete policy %q for %q", pol, rel)
		}
	}
	if c.Ledger.BusyRetries < 0 || c.Ledger.BusyRetries > 10 {
		return fmt.Errorf("busy_retries %d out of range", c.Ledger.BusyRetries)
	}
	if c.Ledger.LockTimeoutMS <= 0 {
		return fmt.Errorf("lock_timeout_ms must be positive")
	}
	if c.Ledger.AcquireTimeoutMS <= 0 {
		return fmt.Errorf("acquire_timeout_ms must be positive")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("cors_origins must list at least one origin")
	}
	if c.Pool.MaxOpenConns <= 0 {
		return fmt.Errorf("pool.max_open_conns must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
