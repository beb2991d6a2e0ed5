package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ContaSync/CS-Backend/internal/config"
)

func loadWithFile(t *testing.T, yaml string) (*config.Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contasync.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	t.Setenv("CONTASYNC_CONFIG", path)
	return config.Load()
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONTASYNC_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5050" {
		t.Errorf("default port = %q, want 5050", cfg.Port)
	}
	if cfg.Ledger.OverrunPolicy != config.OverrunWarn {
		t.Errorf("default overrun policy = %q, want warn", cfg.Ledger.OverrunPolicy)
	}
	if cfg.Ledger.BusyRetries != 3 {
		t.Errorf("default busy retries = %d, want 3", cfg.Ledger.BusyRetries)
	}
	if got := cfg.Ledger.DeletePolicies["bancos.cuentas"]; got != config.PolicyReject {
		t.Errorf("bancos.cuentas policy = %q, want reject", got)
	}
	if got := cfg.Ledger.DeletePolicies["ingresos.recibos"]; got != config.PolicyCascade {
		t.Errorf("ingresos.recibos policy = %q, want cascade", got)
	}
	if got := cfg.Ledger.DeletePolicies["proyectos.inversiones"]; got != config.PolicyReject {
		t.Errorf("proyectos.inversiones policy = %q, want reject", got)
	}
	if cfg.Ledger.AcquireTimeoutMS != 1000 {
		t.Errorf("default acquire timeout = %d, want 1000", cfg.Ledger.AcquireTimeoutMS)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("default cors origins = %v, want the two local frontends", cfg.CORSOrigins)
	}
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CONTASYNC_CONFIG", "")
	t.Setenv("CORS_ORIGINS", "https://app.contasync.co, https://staging.contasync.co")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"https://app.contasync.co", "https://staging.contasync.co"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("cors origins = %v, want %v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Errorf("cors origin[%d] = %q, want %q", i, cfg.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadFileOverlay(t *testing.T) {
	cfg, err := loadWithFile(t, `
cors_origins:
  - https://app.contasync.co
ledger:
  overrun_policy: reject
  busy_retries: 5
  acquire_timeout_ms: 250
  delete_policies:
    presupuestos.gastos: reject
`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ledger.OverrunPolicy != config.OverrunReject {
		t.Errorf("overrun policy = %q, want reject", cfg.Ledger.OverrunPolicy)
	}
	if cfg.Ledger.BusyRetries != 5 {
		t.Errorf("busy retries = %d, want 5", cfg.Ledger.BusyRetries)
	}
	if got := cfg.Ledger.DeletePolicies["presupuestos.gastos"]; got != config.PolicyReject {
		t.Errorf("overridden policy = %q, want reject", got)
	}
	// Entries not mentioned in the file keep their defaults.
	if got := cfg.Ledger.DeletePolicies["clientes.ingresos"]; got != config.PolicySetNull {
		t.Errorf("untouched policy = %q, want set_null", got)
	}
	if cfg.Ledger.AcquireTimeoutMS != 250 {
		t.Errorf("acquire timeout = %d, want 250", cfg.Ledger.AcquireTimeoutMS)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.contasync.co" {
		t.Errorf("cors origins = %v, want the single file origin", cfg.CORSOrigins)
	}
}

func TestLoadRejectsUnknownRelationship(t *testing.T) {
	_, err := loadWithFile(t, `
ledger:
  delete_policies:
    facturas.pagos: cascade
`)
	if err == nil {
		t.Fatal("expected error for unknown relationship, got nil")
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	_, err := loadWithFile(t, `
ledger:
  overrun_policy: maybe
`)
	if err == nil {
		t.Fatal("expected error for invalid overrun policy, got nil")
	}
}
