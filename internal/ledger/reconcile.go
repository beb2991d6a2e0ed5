package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ContaSync/CS-Backend/internal/config"
	"github.com/ContaSync/CS-Backend/internal/money"
)

// The reconciliation engine. Every write to ingresos, gastos, or balance
// recomputes derived fields from stored values and keeps the referenced
// account balance in step, inside the same transaction as the row write.
// Deletes reverse the original adjustment symmetrically instead of
// rescanning the whole table.

// adjustAccountBalance locks the account row and moves saldo_actual by
// delta. A negative result is refused before it reaches the CHECK
// constraint so the caller gets a named field back.
func adjustAccountBalance(tx *gorm.DB, accountID int64, delta int64) error {
	var account Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errf(KindInvalidReference, "cuenta_id", "referenced row %d does not exist", accountID)
		}
		return err
	}
	nuevo := account.SaldoActual + delta
	if nuevo < 0 {
		return errf(KindInvalidAmount, "saldo_actual",
			"adjustment of %s would leave cuenta %s at %d", money.Format(-delta), account.NumeroCuenta, nuevo)
	}
	return tx.Model(&account).Update("saldo_actual", nuevo).Error
}

// ---- incomes ----

// IncomeInput carries raw client values. saldo_en_caja has no field on
// purpose: it is derived, never read from the request.
type IncomeInput struct {
	Fecha         string `json:"fecha"`
	ValorRecibido any    `json:"valor_recibido"`
	SaldoAnterior any    `json:"saldo_anterior"`
	TotalIngresos any    `json:"total_ingresos"`
	NumeroRecibo  string `json:"numero_recibo"`
	ClienteID     any    `json:"cliente_id"`
	CuentaID      any    `json:"cuenta_id"`
}

func (s *Store) parseIncome(in IncomeInput) (*IncomeTransaction, error) {
	if in.NumeroRecibo == "" {
		return nil, errf(KindInvalidInput, "numero_recibo", "numero_recibo is required")
	}
	fecha, err := parseDate("fecha", in.Fecha, false)
	if err != nil {
		return nil, err
	}
	valor, err := money.ParseAmount(in.ValorRecibido)
	if err != nil {
		return nil, errf(KindInvalidAmount, "valor_recibido", "%v", err)
	}
	var saldoAnterior *int64
	if in.SaldoAnterior != nil {
		v, err := money.ParseAmount(in.SaldoAnterior)
		if err != nil {
			return nil, errf(KindInvalidAmount, "saldo_anterior", "%v", err)
		}
		saldoAnterior = &v
	}
	var total int64
	if in.TotalIngresos != nil {
		if total, err = money.ParseAmount(in.TotalIngresos); err != nil {
			return nil, errf(KindInvalidAmount, "total_ingresos", "%v", err)
		}
	}
	clienteID, err := money.ParseRef(in.ClienteID)
	if err != nil {
		return nil, errf(KindInvalidReference, "cliente_id", "%v", err)
	}
	cuentaID, err := money.ParseRef(in.CuentaID)
	if err != nil {
		return nil, errf(KindInvalidReference, "cuenta_id", "%v", err)
	}

	income := IncomeTransaction{
		Fecha:         fecha,
		ValorRecibido: valor,
		SaldoAnterior: saldoAnterior,
		TotalIngresos: total,
		NumeroRecibo:  in.NumeroRecibo,
		ClienteID:     clienteID,
		CuentaID:      cuentaID,
	}
	// saldo_en_caja = valor_recibido + saldo_anterior, when both are known.
	if saldoAnterior != nil {
		caja := valor + *saldoAnterior
		income.SaldoEnCaja = &caja
	}
	return &income, nil
}

func (s *Store) ListIncomes(ctx context.Context) ([]IncomeTransaction, error) {
	var incomes []IncomeTransaction
	if err := s.db.WithContext(ctx).Preload("Cliente").Preload("Cuenta").
		Order("id").Find(&incomes).Error; err != nil {
		return nil, translate(err, false)
	}
	return incomes, nil
}

func (s *Store) GetIncome(ctx context.Context, id int64) (*IncomeTransaction, error) {
	var income IncomeTransaction
	if err := s.db.WithContext(ctx).Preload("Cliente").Preload("Cuenta").
		First(&income, "id = ?", id).Error; err != nil {
		return nil, translate(err, false)
	}
	return &income, nil
}

func (s *Store) CreateIncome(ctx context.Context, in IncomeInput) (*IncomeTransaction, error) {
	income, err := s.parseIncome(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if income.ClienteID != nil {
			if err := refExists(tx, &Client{}, *income.ClienteID, "cliente_id"); err != nil {
				return err
			}
		}
		if err := tx.Create(income).Error; err != nil {
			return err
		}
		if income.CuentaID != nil {
			return adjustAccountBalance(tx, *income.CuentaID, income.ValorRecibido)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if income.CuentaID != nil {
		s.emit(ctx, ReconciledEvent{Entidad: "ingreso", ID: income.ID, CuentaID: income.CuentaID, Delta: income.ValorRecibido})
	}
	return income, nil
}

func (s *Store) UpdateIncome(ctx context.Context, id int64, in IncomeInput) (*IncomeTransaction, error) {
	parsed, err := s.parseIncome(in)
	if err != nil {
		return nil, err
	}
	var delta int64
	var cuentaTouched *int64
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		var existing IncomeTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		if parsed.ClienteID != nil {
			if err := refExists(tx, &Client{}, *parsed.ClienteID, "cliente_id"); err != nil {
				return err
			}
		}
		// Reverse the effect already reconciled into the old account, then
		// apply the new one. Old and new may be different accounts.
		if existing.CuentaID != nil {
			if err := adjustAccountBalance(tx, *existing.CuentaID, -existing.ValorRecibido); err != nil {
				return err
			}
		}
		if parsed.CuentaID != nil {
			if err := adjustAccountBalance(tx, *parsed.CuentaID, parsed.ValorRecibido); err != nil {
				return err
			}
			delta = parsed.ValorRecibido
			cuentaTouched = parsed.CuentaID
		}
		return tx.Model(&existing).Updates(map[string]any{
			"fecha":          parsed.Fecha,
			"valor_recibido": parsed.ValorRecibido,
			"saldo_anterior": parsed.SaldoAnterior,
			"saldo_en_caja":  parsed.SaldoEnCaja,
			"total_ingresos": parsed.TotalIngresos,
			"numero_recibo":  parsed.NumeroRecibo,
			"cliente_id":     parsed.ClienteID,
			"cuenta_id":      parsed.CuentaID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	if cuentaTouched != nil {
		s.emit(ctx, ReconciledEvent{Entidad: "ingreso", ID: id, CuentaID: cuentaTouched, Delta: delta})
	}
	return s.GetIncome(ctx, id)
}

func (s *Store) DeleteIncome(ctx context.Context, id int64) error {
	var reversed ReconciledEvent
	err := s.write(ctx, true, func(tx *gorm.DB) error {
		var income IncomeTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&income, "id = ?", id).Error; err != nil {
			return err
		}
		if income.CuentaID != nil {
			if err := adjustAccountBalance(tx, *income.CuentaID, -income.ValorRecibido); err != nil {
				return err
			}
			reversed = ReconciledEvent{Entidad: "ingreso", ID: id, CuentaID: income.CuentaID, Delta: -income.ValorRecibido}
		}
		if err := s.applyDeletePolicy(tx, "ingresos", id); err != nil {
			return err
		}
		return tx.Delete(&income).Error
	})
	if err != nil {
		return err
	}
	if reversed.CuentaID != nil {
		s.emit(ctx, reversed)
	}
	return nil
}

// ---- expenses ----

type ExpenseInput struct {
	Fecha             string `json:"fecha"`
	Descripcion       string `json:"descripcion"`
	Monto             any    `json:"monto"`
	Categoria         string `json:"categoria"`
	MetodoPago        string `json:"metodo_pago"`
	ProveedorID       any    `json:"proveedor_id"`
	CentroCostoID     any    `json:"centro_costo_id"`
	PresupuestoID     any    `json:"presupuesto_id"`
	CuentaID          any    `json:"cuenta_id"`
	PermitirSobregiro bool   `json:"permitir_sobregiro"`
}

func (s *Store) parseExpense(in ExpenseInput) (*ExpenseTransaction, error) {
	if in.Descripcion == "" {
		return nil, errf(KindInvalidInput, "descripcion", "descripcion is required")
	}
	fecha, err := parseDate("fecha", in.Fecha, false)
	if err != nil {
		return nil, err
	}
	monto, err := money.ParseAmount(in.Monto)
	if err != nil {
		return nil, errf(KindInvalidAmount, "monto", "%v", err)
	}
	proveedorID, err := money.ParseRef(in.ProveedorID)
	if err != nil {
		return nil, errf(KindInvalidReference, "proveedor_id", "%v", err)
	}
	centroID, err := money.ParseRef(in.CentroCostoID)
	if err != nil {
		return nil, errf(KindInvalidReference, "centro_costo_id", "%v", err)
	}
	presupuestoID, err := money.ParseRef(in.PresupuestoID)
	if err != nil {
		return nil, errf(KindInvalidReference, "presupuesto_id", "%v", err)
	}
	cuentaID, err := money.ParseRef(in.CuentaID)
	if err != nil {
		return nil, errf(KindInvalidReference, "cuenta_id", "%v", err)
	}
	return &ExpenseTransaction{
		Fecha:         fecha,
		Descripcion:   in.Descripcion,
		Monto:         monto,
		Categoria:     in.Categoria,
		MetodoPago:    in.MetodoPago,
		ProveedorID:   proveedorID,
		CentroCostoID: centroID,
		PresupuestoID: presupuestoID,
		CuentaID:      cuentaID,
	}, nil
}

func (s *Store) expenseRefsExist(tx *gorm.DB, e *ExpenseTransaction) error {
	if e.ProveedorID != nil {
		if err := refExists(tx, &Supplier{}, *e.ProveedorID, "proveedor_id"); err != nil {
			return err
		}
	}
	if e.CentroCostoID != nil {
		if err := refExists(tx, &CostCenter{}, *e.CentroCostoID, "centro_costo_id"); err != nil {
			return err
		}
	}
	return nil
}

// checkBudgetCap evaluates the soft cap after the expense row is in place.
// Under the warn policy the boundary is reported, never blocked; under
// reject it fails unless the request carried permitir_sobregiro.
func (s *Store) checkBudgetCap(tx *gorm.DB, budgetID int64, override bool) (*Utilization, error) {
	util, err := utilizationTx(tx, budgetID)
	if err != nil {
		return nil, err
	}
	if util.Sobregirado && s.cfg.OverrunPolicy == config.OverrunReject && !override {
		return nil, errf(KindReferentialConflict, "presupuesto_id",
			"presupuesto %d excedido: gastado %s de %s asignado", budgetID,
			money.Format(util.Gastado), money.Format(util.Asignado))
	}
	return util, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]ExpenseTransaction, error) {
	var expenses []ExpenseTransaction
	if err := s.db.WithContext(ctx).Preload("Proveedor").Preload("CentroCosto").
		Preload("Presupuesto").Order("id ASC").Find(&expenses).Error; err != nil {
		return nil, translate(err, false)
	}
	return expenses, nil
}

func (s *Store) GetExpense(ctx context.Context, id int64) (*ExpenseTransaction, error) {
	var expense ExpenseTransaction
	if err := s.db.WithContext(ctx).Preload("Proveedor").Preload("CentroCosto").
		Preload("Presupuesto").First(&expense, "id = ?", id).Error; err != nil {
		return nil, translate(err, false)
	}
	return &expense, nil
}

// CreateExpense writes the expense and, when a budget is involved, returns
// the post-write utilization so callers can surface the boundary condition.
func (s *Store) CreateExpense(ctx context.Context, in ExpenseInput) (*ExpenseTransaction, *Utilization, error) {
	expense, err := s.parseExpense(in)
	if err != nil {
		return nil, nil, err
	}
	var util *Utilization
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := s.expenseRefsExist(tx, expense); err != nil {
			return err
		}
		if expense.PresupuestoID != nil {
			if err := refExists(tx, &Budget{}, *expense.PresupuestoID, "presupuesto_id"); err != nil {
				return err
			}
		}
		if err := tx.Create(expense).Error; err != nil {
			return err
		}
		if expense.CuentaID != nil {
			if err := adjustAccountBalance(tx, *expense.CuentaID, -expense.Monto); err != nil {
				return err
			}
		}
		if expense.PresupuestoID != nil {
			util, err = s.checkBudgetCap(tx, *expense.PresupuestoID, in.PermitirSobregiro)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if expense.CuentaID != nil {
		s.emit(ctx, ReconciledEvent{Entidad: "gasto", ID: expense.ID, CuentaID: expense.CuentaID, Delta: -expense.Monto})
	}
	return expense, util, nil
}

func (s *Store) UpdateExpense(ctx context.Context, id int64, in ExpenseInput) (*ExpenseTransaction, *Utilization, error) {
	parsed, err := s.parseExpense(in)
	if err != nil {
		return nil, nil, err
	}
	var util *Utilization
	var delta int64
	var cuentaTouched *int64
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		var existing ExpenseTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.expenseRefsExist(tx, parsed); err != nil {
			return err
		}
		if parsed.PresupuestoID != nil {
			if err := refExists(tx, &Budget{}, *parsed.PresupuestoID, "presupuesto_id"); err != nil {
				return err
			}
		}
		if existing.CuentaID != nil {
			if err := adjustAccountBalance(tx, *existing.CuentaID, existing.Monto); err != nil {
				return err
			}
		}
		if parsed.CuentaID != nil {
			if err := adjustAccountBalance(tx, *parsed.CuentaID, -parsed.Monto); err != nil {
				return err
			}
			delta = -parsed.Monto
			cuentaTouched = parsed.CuentaID
		}
		if err := tx.Model(&existing).Updates(map[string]any{
			"fecha":           parsed.Fecha,
			"descripcion":     parsed.Descripcion,
			"monto":           parsed.Monto,
			"categoria":       parsed.Categoria,
			"metodo_pago":     parsed.MetodoPago,
			"proveedor_id":    parsed.ProveedorID,
			"centro_costo_id": parsed.CentroCostoID,
			"presupuesto_id":  parsed.PresupuestoID,
			"cuenta_id":       parsed.CuentaID,
		}).Error; err != nil {
			return err
		}
		if parsed.PresupuestoID != nil {
			util, err = s.checkBudgetCap(tx, *parsed.PresupuestoID, in.PermitirSobregiro)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if cuentaTouched != nil {
		s.emit(ctx, ReconciledEvent{Entidad: "gasto", ID: id, CuentaID: cuentaTouched, Delta: delta})
	}
	expense, err := s.GetExpense(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return expense, util, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	var reversed ReconciledEvent
	err := s.write(ctx, true, func(tx *gorm.DB) error {
		var expense ExpenseTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&expense, "id = ?", id).Error; err != nil {
			return err
		}
		if expense.CuentaID != nil {
			if err := adjustAccountBalance(tx, *expense.CuentaID, expense.Monto); err != nil {
				return err
			}
			reversed = ReconciledEvent{Entidad: "gasto", ID: id, CuentaID: expense.CuentaID, Delta: expense.Monto}
		}
		if err := s.applyDeletePolicy(tx, "gastos", id); err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		return err
	}
	if reversed.CuentaID != nil {
		s.emit(ctx, reversed)
	}
	return nil
}

// ---- balances ----

// BalanceInput has no utilidad field: the snapshot's derived value is always
// recomputed here from the parsed operands, matching what the backend has
// always done on balance writes.
type BalanceInput struct {
	Fecha         string `json:"fecha"`
	Ingresos      any    `json:"ingresos"`
	Gastos        any    `json:"gastos"`
	PresupuestoID any    `json:"presupuesto_id"`
}

func (s *Store) parseBalance(in BalanceInput) (*Balance, error) {
	fecha, err := parseDate("fecha", in.Fecha, false)
	if err != nil {
		return nil, err
	}
	ingresos, err := money.ParseAmount(in.Ingresos)
	if err != nil {
		return nil, errf(KindInvalidAmount, "ingresos", "%v", err)
	}
	gastos, err := money.ParseAmount(in.Gastos)
	if err != nil {
		return nil, errf(KindInvalidAmount, "gastos", "%v", err)
	}
	presupuestoID, err := money.ParseRef(in.PresupuestoID)
	if err != nil {
		return nil, errf(KindInvalidReference, "presupuesto_id", "%v", err)
	}
	return &Balance{
		Fecha:         fecha,
		Ingresos:      ingresos,
		Gastos:        gastos,
		Utilidad:      ingresos - gastos,
		PresupuestoID: presupuestoID,
	}, nil
}

func (s *Store) ListBalances(ctx context.Context) ([]Balance, error) {
	var balances []Balance
	if err := s.db.WithContext(ctx).Preload("Presupuesto").Order("fecha DESC").
		Find(&balances).Error; err != nil {
		return nil, translate(err, false)
	}
	return balances, nil
}

func (s *Store) GetBalance(ctx context.Context, id int64) (*Balance, error) {
	var balance Balance
	if err := s.db.WithContext(ctx).Preload("Presupuesto").First(&balance, "id = ?", id).Error; err != nil {
		return nil, translate(err, false)
	}
	return &balance, nil
}

func (s *Store) CreateBalance(ctx context.Context, in BalanceInput) (*Balance, error) {
	balance, err := s.parseBalance(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if balance.PresupuestoID != nil {
			if err := refExists(tx, &Budget{}, *balance.PresupuestoID, "presupuesto_id"); err != nil {
				return err
			}
		}
		return tx.Create(balance).Error
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *Store) UpdateBalance(ctx context.Context, id int64, in BalanceInput) (*Balance, error) {
	parsed, err := s.parseBalance(in)
	if err != nil {
		return nil, err
	}
	var balance Balance
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&balance, "id = ?", id).Error; err != nil {
			return err
		}
		if parsed.PresupuestoID != nil {
			if err := refExists(tx, &Budget{}, *parsed.PresupuestoID, "presupuesto_id"); err != nil {
				return err
			}
		}
		return tx.Model(&balance).Updates(map[string]any{
			"fecha":          parsed.Fecha,
			"ingresos":       parsed.Ingresos,
			"gastos":         parsed.Gastos,
			"utilidad":       parsed.Utilidad,
			"presupuesto_id": parsed.PresupuestoID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *Store) DeleteBalance(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var balance Balance
		if err := tx.First(&balance, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "balance", id); err != nil {
			return err
		}
		return tx.Delete(&balance).Error
	})
}
