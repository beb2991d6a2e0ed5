package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/ContaSync/CS-Backend/internal/config"
	"github.com/ContaSync/CS-Backend/internal/money"
)

// ReconciledEvent describes a committed write that moved an account balance.
type ReconciledEvent struct {
	Entidad  string `json:"entidad"`
	ID       int64  `json:"id"`
	CuentaID *int64 `json:"cuenta_id,omitempty"`
	Delta    int64  `json:"delta"`
}

// EventPublisher receives reconciliation events after commit. Publishing is
// best-effort; a failure never rolls back the write.
type EventPublisher interface {
	LedgerReconciled(ctx context.Context, ev ReconciledEvent) error
}

// Store is the entity store plus the reconciliation engine. It owns every
// mutation of ledger rows; each operation runs in one transaction against
// the injected handle.
type Store struct {
	db     *gorm.DB
	cfg    config.Ledger
	events EventPublisher

	// sem bounds concurrent writers to the pool size so a saturated pool
	// surfaces as resource_exhausted instead of queuing callers forever
	// inside database/sql.
	sem *semaphore.Weighted
}

func NewStore(gdb *gorm.DB, cfg config.Ledger) *Store {
	if cfg.DeletePolicies == nil {
		cfg.DeletePolicies = config.DefaultDeletePolicies()
	}
	if cfg.AcquireTimeoutMS <= 0 {
		cfg.AcquireTimeoutMS = 1000
	}
	slots := 20
	if sqlDB, err := gdb.DB(); err == nil {
		if max := sqlDB.Stats().MaxOpenConnections; max > 0 {
			slots = max
		}
	}
	return &Store{db: gdb, cfg: cfg, sem: semaphore.NewWeighted(int64(slots))}
}

// WithEvents attaches an event publisher (nil-safe to skip).
func (s *Store) WithEvents(p EventPublisher) *Store {
	s.events = p
	return s
}

// DB exposes the underlying handle for read-only composition (assembler,
// utilization queries).
func (s *Store) DB() *gorm.DB { return s.db }

// acquire claims a writer slot, waiting at most the configured acquire
// timeout. database/sql parks callers indefinitely when the pool is full,
// so the bound has to live here on the client side.
func (s *Store) acquire(ctx context.Context) (release func(), err error) {
	actx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.AcquireTimeoutMS)*time.Millisecond)
	defer cancel()
	if err := s.sem.Acquire(actx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, translate(ctx.Err(), false)
		}
		return nil, errf(KindResourceExhausted, "", "connection pool exhausted; retry later")
	}
	return func() { s.sem.Release(1) }, nil
}

// write runs fn in a transaction with a bounded lock timeout, translating
// failures into the error taxonomy. Busy failures are retried with doubling
// backoff up to cfg.BusyRetries before surfacing.
func (s *Store) write(ctx context.Context, onDelete bool, fn func(tx *gorm.DB) error) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	backoff := 50 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.cfg.LockTimeoutMS)).Error; err != nil {
				return err
			}
			return fn(tx)
		})
		err = translate(err, onDelete)
		if err == nil || !isKind(err, KindBusy) || attempt >= s.cfg.BusyRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return translate(ctx.Err(), onDelete)
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *Store) emit(ctx context.Context, ev ReconciledEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.LedgerReconciled(ctx, ev); err != nil {
		log.Printf("ledger: publish reconciled event for %s %d: %v", ev.Entidad, ev.ID, err)
	}
}

// refExists verifies a foreign key target inside the current transaction so
// the error can name the missing entity instead of waiting for SQLSTATE 23503.
func refExists(tx *gorm.DB, model any, id int64, field string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errf(KindInvalidReference, field, "referenced row %d does not exist", id)
	}
	return nil
}

// parseDate accepts the date shapes the frontend sends: plain days and full
// timestamps. An empty value defaults to now when the field is optional.
func parseDate(field, value string, required bool) (time.Time, error) {
	if value == "" {
		if required {
			return time.Time{}, errf(KindInvalidInput, field, "%s is required", field)
		}
		return time.Now(), nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errf(KindInvalidInput, field, "invalid date %q", value)
}

// ---- relationship policy table ----

type childRel struct {
	child    string
	model    any
	fkColumn string
}

// childRelations lists, per parent table, every table holding a foreign key
// into it. Policy keys in config are "<parent>.<child>".
var childRelations = map[string][]childRel{
	"bancos": {
		{"cuentas", &Account{}, "banco_id"},
	},
	"centros_costos": {
		{"presupuestos", &Budget{}, "centro_costo_id"},
		{"gastos", &ExpenseTransaction{}, "centro_costo_id"},
	},
	"presupuestos": {
		{"gastos", &ExpenseTransaction{}, "presupuesto_id"},
		{"balance", &Balance{}, "presupuesto_id"},
	},
	"clientes": {
		{"ingresos", &IncomeTransaction{}, "cliente_id"},
	},
	"proveedores": {
		{"gastos", &ExpenseTransaction{}, "proveedor_id"},
	},
	"cuentas": {
		{"ingresos", &IncomeTransaction{}, "cuenta_id"},
		{"gastos", &ExpenseTransaction{}, "cuenta_id"},
	},
	"balance": {
		{"estados_financieros", &FinancialStatement{}, "balance_id"},
	},
	"ingresos": {
		{"recibos", &Receipt{}, "ingreso_id"},
	},
	"gastos": {
		{"recibos", &Receipt{}, "gasto_id"},
	},
	"proyectos": {
		{"inversiones", &Investment{}, "proyecto_id"},
	},
}

// applyDeletePolicy runs the configured policy for every child relationship
// of the row about to be deleted. The same code path serves every entity, so
// no endpoint can drift into its own ad hoc rule.
func (s *Store) applyDeletePolicy(tx *gorm.DB, parent string, id int64) error {
	for _, rel := range childRelations[parent] {
		policy, ok := s.cfg.DeletePolicies[parent+"."+rel.child]
		if !ok {
			policy = config.PolicyReject
		}
		switch policy {
		case config.PolicyReject:
			var count int64
			if err := tx.Model(rel.model).Where(rel.fkColumn+" = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errf(KindReferentialConflict, rel.fkColumn,
					"%s %d is still referenced by %d row(s) in %s", parent, id, count, rel.child)
			}
		case config.PolicyCascade:
			if err := tx.Where(rel.fkColumn+" = ?", id).Delete(rel.model).Error; err != nil {
				return err
			}
		case config.PolicySetNull:
			if err := tx.Model(rel.model).Where(rel.fkColumn+" = ?", id).
				Update(rel.fkColumn, nil).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// ---- banks ----

type BankInput struct {
	Nombre string `json:"nombre"`
	Pais   string `json:"pais"`
	Ciudad string `json:"ciudad"`
}

func (s *Store) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := s.db.WithContext(ctx).Order("id").Find(&banks).Error; err != nil {
		return nil, translate(err, false)
	}
	return banks, nil
}

func (s *Store) CreateBank(ctx context.Context, in BankInput) (*Bank, error) {
	if in.Nombre == "" {
		return nil, errf(KindInvalidInput, "nombre", "nombre is required")
	}
	bank := Bank{Nombre: in.Nombre, Pais: in.Pais, Ciudad: in.Ciudad}
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		return tx.Create(&bank).Error
	})
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

func (s *Store) UpdateBank(ctx context.Context, id int64, in BankInput) (*Bank, error) {
	if in.Nombre == "" {
		return nil, errf(KindInvalidInput, "nombre", "nombre is required")
	}
	var bank Bank
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&bank, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&bank).Updates(map[string]any{
			"nombre": in.Nombre,
			"pais":   in.Pais,
			"ciudad": in.Ciudad,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

func (s *Store) DeleteBank(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var bank Bank
		if err := tx.First(&bank, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "bancos", id); err != nil {
			return err
		}
		return tx.Delete(&bank).Error
	})
}

// ---- accounts ----

type AccountInput struct {
	NumeroCuenta string `json:"numero_cuenta"`
	TipoCuenta   string `json:"tipo_cuenta"`
	BancoID      any    `json:"banco_id"`
	SaldoActual  any    `json:"saldo_actual"`
}

func (s *Store) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.db.WithContext(ctx).Preload("Banco").Order("id").Find(&accounts).Error; err != nil {
		return nil, translate(err, false)
	}
	return accounts, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*Account, error) {
	var account Account
	if err := s.db.WithContext(ctx).Preload("Banco").First(&account, "id = ?", id).Error; err != nil {
		return nil, translate(err, false)
	}
	return &account, nil
}

func validTipoCuenta(tipo string) bool {
	return tipo == AccountSavings || tipo == AccountChecking
}

func (s *Store) CreateAccount(ctx context.Context, in AccountInput) (*Account, error) {
	if in.NumeroCuenta == "" {
		return nil, errf(KindInvalidInput, "numero_cuenta", "numero_cuenta is required")
	}
	if !validTipoCuenta(in.TipoCuenta) {
		return nil, errf(KindInvalidInput, "tipo_cuenta", "tipo_cuenta must be %s or %s", AccountSavings, AccountChecking)
	}
	bancoID, err := money.ParseRef(in.BancoID)
	if err != nil {
		return nil, translate(err, false)
	}
	if bancoID == nil {
		return nil, errf(KindInvalidReference, "banco_id", "banco_id is required")
	}
	// The opening balance is the only client-supplied write to saldo_actual;
	// after creation the reconciliation engine owns it.
	saldo := int64(0)
	if in.SaldoActual != nil {
		if saldo, err = money.ParseAmount(in.SaldoActual); err != nil {
			return nil, translate(err, false)
		}
	}

	account := Account{
		NumeroCuenta: in.NumeroCuenta,
		TipoCuenta:   in.TipoCuenta,
		BancoID:      *bancoID,
		SaldoActual:  saldo,
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := refExists(tx, &Bank{}, *bancoID, "banco_id"); err != nil {
			return err
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount edits identity fields only. saldo_actual is deliberately not
// writable here.
func (s *Store) UpdateAccount(ctx context.Context, id int64, in AccountInput) (*Account, error) {
	if in.NumeroCuenta == "" {
		return nil, errf(KindInvalidInput, "numero_cuenta", "numero_cuenta is required")
	}
	if !validTipoCuenta(in.TipoCuenta) {
		return nil, errf(KindInvalidInput, "tipo_cuenta", "tipo_cuenta must be %s or %s", AccountSavings, AccountChecking)
	}
	bancoID, err := money.ParseRef(in.BancoID)
	if err != nil {
		return nil, translate(err, false)
	}
	if bancoID == nil {
		return nil, errf(KindInvalidReference, "banco_id", "banco_id is required")
	}

	var account Account
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&account, "id = ?", id).Error; err != nil {
			return err
		}
		if err := refExists(tx, &Bank{}, *bancoID, "banco_id"); err != nil {
			return err
		}
		return tx.Model(&account).Updates(map[string]any{
			"numero_cuenta": in.NumeroCuenta,
			"tipo_cuenta":   in.TipoCuenta,
			"banco_id":      *bancoID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var account Account
		if err := tx.First(&account, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "cuentas", id); err != nil {
			return err
		}
		return tx.Delete(&account).Error
	})
}

// ---- clients and suppliers ----

type PartyInput struct {
	Nombre         string `json:"nombre"`
	Identificacion string `json:"identificacion"`
	Telefono       string `json:"telefono"`
	Email          string `json:"email"`
	Direccion      string `json:"direccion"`
}

func (in PartyInput) validate() error {
	if in.Nombre == "" {
		return errf(KindInvalidInput, "nombre", "nombre is required")
	}
	if in.Identificacion == "" {
		return errf(KindInvalidInput, "identificacion", "identificacion is required")
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	var clients []Client
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&clients).Error; err != nil {
		return nil, translate(err, false)
	}
	return clients, nil
}

func (s *Store) CreateClient(ctx context.Context, in PartyInput) (*Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	client := Client{
		Nombre:         in.Nombre,
		Identificacion: in.Identificacion,
		Telefono:       in.Telefono,
		Email:          in.Email,
		Direccion:      in.Direccion,
	}
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		return tx.Create(&client).Error
	})
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *Store) UpdateClient(ctx context.Context, id int64, in PartyInput) (*Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var client Client
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&client, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&client).Updates(map[string]any{
			"nombre":         in.Nombre,
			"identificacion": in.Identificacion,
			"telefono":       in.Telefono,
			"email":          in.Email,
			"direccion":      in.Direccion,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var client Client
		if err := tx.First(&client, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "clientes", id); err != nil {
			return err
		}
		return tx.Delete(&client).Error
	})
}

func (s *Store) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	var suppliers []Supplier
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&suppliers).Error; err != nil {
		return nil, translate(err, false)
	}
	return suppliers, nil
}

func (s *Store) CreateSupplier(ctx context.Context, in PartyInput) (*Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	supplier := Supplier{
		Nombre:         in.Nombre,
		Identificacion: in.Identificacion,
		Telefono:       in.Telefono,
		Email:          in.Email,
		Direccion:      in.Direccion,
	}
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		return tx.Create(&supplier).Error
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, id int64, in PartyInput) (*Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var supplier Supplier
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&supplier, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&supplier).Updates(map[string]any{
			"nombre":         in.Nombre,
			"identificacion": in.Identificacion,
			"telefono":       in.Telefono,
			"email":          in.Email,
			"direccion":      in.Direccion,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var supplier Supplier
		if err := tx.First(&supplier, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "proveedores", id); err != nil {
			return err
		}
		return tx.Delete(&supplier).Error
	})
}

// ---- cost centers ----

type CostCenterInput struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

func (s *Store) ListCostCenters(ctx context.Context) ([]CostCenter, error) {
	var centers []CostCenter
	if err := s.db.WithContext(ctx).Order("id").Find(&centers).Error; err != nil {
		return nil, translate(err, false)
	}
	return centers, nil
}

func (s *Store) CreateCostCenter(ctx context.Context, in CostCenterInput) (*CostCenter, error) {
	if in.Nombre == "" {
		return nil, errf(KindInvalidInput, "nombre", "nombre is required")
	}
	center := CostCenter{Nombre: in.Nombre, Descripcion: in.Descripcion}
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		return tx.Create(&center).Error
	})
	if err != nil {
		return nil, err
	}
	return &center, nil
}

func (s *Store) UpdateCostCenter(ctx context.Context, id int64, in CostCenterInput) (*CostCenter, error) {
	if in.Nombre == "" {
		return nil, errf(KindInvalidInput, "nombre", "nombre is required")
	}
	var center CostCenter
	err := s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&center, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&center).Updates(map[string]any{
			"nombre":      in.Nombre,
			"descripcion": in.Descripcion,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &center, nil
}

func (s *Store) DeleteCostCenter(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var center CostCenter
		if err := tx.First(&center, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "centros_costos", id); err != nil {
			return err
		}
		return tx.Delete(&center).Error
	})
}

// ---- budgets ----

type BudgetInput struct {
	Nombre        string `json:"nombre"`
	MontoTotal    any    `json:"monto_total"`
	FechaInicio   string `json:"fecha_inicio"`
	FechaFin      string `json:"fecha_fin"`
	CentroCostoID any    `json:"centro_costo_id"`
}

func (s *Store) parseBudget(in BudgetInput) (*Budget, error) {
	if in.Nombre == "" {
		return nil, errf(KindInvalidInput, "nombre", "nombre is required")
	}
	monto, err := money.ParseAmount(in.MontoTotal)
	if err != nil {
		return nil, errf(KindInvalidAmount, "monto_total", "%v", err)
	}
	inicio, err := parseDate("fecha_inicio", in.FechaInicio, true)
	if err != nil {
		return nil, err
	}
	fin, err := parseDate("fecha_fin", in.FechaFin, true)
	if err != nil {
		return nil, err
	}
	if fin.Before(inicio) {
		return nil, errf(KindInvalidInput, "fecha_fin", "fecha_fin cannot precede fecha_inicio")
	}
	centroID, err := money.ParseRef(in.CentroCostoID)
	if err != nil {
		return nil, translate(err, false)
	}
	if centroID == nil {
		return nil, errf(KindInvalidReference, "centro_costo_id", "centro_costo_id is required")
	}
	return &Budget{
		Nombre:        in.Nombre,
		MontoTotal:    monto,
		FechaInicio:   inicio,
		FechaFin:      fin,
		CentroCostoID: *centroID,
	}, nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]Budget, error) {
	var budgets []Budget
	if err := s.db.WithContext(ctx).Preload("CentroCosto").Order("id").Find(&budgets).Error; err != nil {
		return nil, translate(err, false)
	}
	return budgets, nil
}

func (s *Store) GetBudget(ctx context.Context, id int64) (*Budget, error) {
	var budget Budget
	if err := s.db.WithContext(ctx).Preload("CentroCosto").First(&budget, "id = ?", id).Error; err != nil {
		return nil, translate(err, false)
	}
	return &budget, nil
}

func (s *Store) CreateBudget(ctx context.Context, in BudgetInput) (*Budget, error) {
	budget, err := s.parseBudget(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := refExists(tx, &CostCenter{}, budget.CentroCostoID, "centro_costo_id"); err != nil {
			return err
		}
		return tx.Create(budget).Error
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *Store) UpdateBudget(ctx context.Context, id int64, in BudgetInput) (*Budget, error) {
	parsed, err := s.parseBudget(in)
	if err != nil {
		return nil, err
	}
	var budget Budget
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&budget, "id = ?", id).Error; err != nil {
			return err
		}
		if err := refExists(tx, &CostCenter{}, parsed.CentroCostoID, "centro_costo_id"); err != nil {
			return err
		}
		return tx.Model(&budget).Updates(map[string]any{
			"nombre":          parsed.Nombre,
			"monto_total":     parsed.MontoTotal,
			"fecha_inicio":    parsed.FechaInicio,
			"fecha_fin":       parsed.FechaFin,
			"centro_costo_id": parsed.CentroCostoID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var budget Budget
		if err := tx.First(&budget, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "presupuestos", id); err != nil {
			return err
		}
		return tx.Delete(&budget).Error
	})
}

// ---- receipts ----

type ReceiptInput struct {
	IngresoID any    `json:"ingreso_id"`
	GastoID   any    `json:"gasto_id"`
	Fecha     string `json:"fecha"`
	Monto     any    `json:"monto"`
}

func (s *Store) ListReceipts(ctx context.Context) ([]Receipt, error) {
	var receipts []Receipt
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&receipts).Error; err != nil {
		return nil, translate(err, false)
	}
	return receipts, nil
}

func (s *Store) CreateReceipt(ctx context.Context, in ReceiptInput) (*Receipt, error) {
	ingresoID, err := money.ParseRef(in.IngresoID)
	if err != nil {
		return nil, translate(err, false)
	}
	gastoID, err := money.ParseRef(in.GastoID)
	if err != nil {
		return nil, translate(err, false)
	}
	if ingresoID == nil || gastoID == nil {
		return nil, errf(KindInvalidReference, "ingreso_id", "both ingreso_id and gasto_id are required")
	}
	fecha, err := parseDate("fecha", in.Fecha, false)
	if err != nil {
		return nil, err
	}
	monto, err := money.ParseAmount(in.Monto)
	if err != nil {
		return nil, errf(KindInvalidAmount, "monto", "%v", err)
	}

	receipt := Receipt{IngresoID: *ingresoID, GastoID: *gastoID, Fecha: fecha, Monto: monto}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := refExists(tx, &IncomeTransaction{}, *ingresoID, "ingreso_id"); err != nil {
			return err
		}
		if err := refExists(tx, &ExpenseTransaction{}, *gastoID, "gasto_id"); err != nil {
			return err
		}
		return tx.Create(&receipt).Error
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (s *Store) DeleteReceipt(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var receipt Receipt
		if err := tx.First(&receipt, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&receipt).Error
	})
}

// ---- financial statements ----

type StatementInput struct {
	Tipo        string `json:"tipo"`
	Fecha       string `json:"fecha"`
	Descripcion string `json:"descripcion"`
	BalanceID   any    `json:"balance_id"`
}

func (s *Store) parseStatement(in StatementInput) (*FinancialStatement, error) {
	if in.Tipo != StatementBalanceSheet && in.Tipo != StatementIncomeStatement {
		return nil, errf(KindInvalidInput, "tipo", "tipo must be %s or %s", StatementBalanceSheet, StatementIncomeStatement)
	}
	fecha, err := parseDate("fecha", in.Fecha, false)
	if err != nil {
		return nil, err
	}
	balanceID, err := money.ParseRef(in.BalanceID)
	if err != nil {
		return nil, translate(err, false)
	}
	return &FinancialStatement{
		Tipo:        in.Tipo,
		Fecha:       fecha,
		Descripcion: in.Descripcion,
		BalanceID:   balanceID,
	}, nil
}

func (s *Store) ListStatements(ctx context.Context) ([]FinancialStatement, error) {
	var statements []FinancialStatement
	if err := s.db.WithContext(ctx).Preload("Balance").Order("fecha DESC").Find(&statements).Error; err != nil {
		return nil, translate(err, false)
	}
	return statements, nil
}

func (s *Store) CreateStatement(ctx context.Context, in StatementInput) (*FinancialStatement, error) {
	statement, err := s.parseStatement(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if statement.BalanceID != nil {
			if err := refExists(tx, &Balance{}, *statement.BalanceID, "balance_id"); err != nil {
				return err
			}
		}
		return tx.Create(statement).Error
	})
	if err != nil {
		return nil, err
	}
	return statement, nil
}

func (s *Store) UpdateStatement(ctx context.Context, id int64, in StatementInput) (*FinancialStatement, error) {
	parsed, err := s.parseStatement(in)
	if err != nil {
		return nil, err
	}
	var statement FinancialStatement
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&statement, "id = ?", id).Error; err != nil {
			return err
		}
		if parsed.BalanceID != nil {
			if err := refExists(tx, &Balance{}, *parsed.BalanceID, "balance_id"); err != nil {
				return err
			}
		}
		return tx.Model(&statement).Updates(map[string]any{
			"tipo":        parsed.Tipo,
			"fecha":       parsed.Fecha,
			"descripcion": parsed.Descripcion,
			"balance_id":  parsed.BalanceID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &statement, nil
}

func (s *Store) DeleteStatement(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var statement FinancialStatement
		if err := tx.First(&statement, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&statement).Error
	})
}
