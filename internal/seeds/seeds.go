package seeds

import (
	"context"
	"fmt"
	"log"

	"github.com/ContaSync/CS-Backend/internal/ledger"
)

// SeedAll loads a small demo dataset through the store so that account
// balances, budget utilization and the daily balance rows all come out
// consistent. It is a no-op when banks already exist.
func SeedAll(store *ledger.Store) error {
	ctx := context.Background()

	banks, err := store.ListBanks(ctx)
	if err != nil {
		return fmt.Errorf("could not list banks: %w", err)
	}
	if len(banks) > 0 {
		log.Println("⚠️ Data already present, skipping seed")
		return nil
	}

	bank, err := store.CreateBank(ctx, ledger.BankInput{
		Nombre: "Bancolombia",
		Pais:   "Colombia",
		Ciudad: "Medellín",
	})
	if err != nil {
		return fmt.Errorf("failed to create bank: %w", err)
	}

	checking, err := store.CreateAccount(ctx, ledger.AccountInput{
		NumeroCuenta: "001-222",
		TipoCuenta:   ledger.AccountChecking,
		BancoID:      bank.ID,
		SaldoActual:  500000,
	})
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if _, err := store.CreateAccount(ctx, ledger.AccountInput{
		NumeroCuenta: "001-333",
		TipoCuenta:   ledger.AccountSavings,
		BancoID:      bank.ID,
	}); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	client, err := store.CreateClient(ctx, ledger.PartyInput{
		Nombre:         "Comercial Andina SAS",
		Identificacion: "900123456-1",
		Telefono:       "3001234567",
		Email:          "facturacion@andina.co",
		Direccion:      "Cra 43A 1-50, Medellín",
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	supplier, err := store.CreateSupplier(ctx, ledger.PartyInput{
		Nombre:         "Papelería El Punto",
		Identificacion: "800987654-3",
		Telefono:       "3109876543",
		Email:          "ventas@elpunto.co",
		Direccion:      "Cl 10 20-30, Medellín",
	})
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}

	center, err := store.CreateCostCenter(ctx, ledger.CostCenterInput{
		Nombre:      "Marketing",
		Descripcion: "Campañas y material publicitario",
	})
	if err != nil {
		return fmt.Errorf("failed to create cost center: %w", err)
	}

	budget, err := store.CreateBudget(ctx, ledger.BudgetInput{
		Nombre:        "Q1 Marketing",
		MontoTotal:    5000000,
		FechaInicio:   "2026-01-01",
		FechaFin:      "2026-03-31",
		CentroCostoID: center.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	income, err := store.CreateIncome(ctx, ledger.IncomeInput{
		Fecha:         "2026-01-15",
		ValorRecibido: 1200000,
		SaldoAnterior: 500000,
		NumeroRecibo:  "RC-0001",
		ClienteID:     client.ID,
		CuentaID:      checking.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to create income: %w", err)
	}

	expense, _, err := store.CreateExpense(ctx, ledger.ExpenseInput{
		Fecha:         "2026-01-20",
		Descripcion:   "Impresión de volantes",
		Monto:         350000,
		Categoria:     "Publicidad",
		MetodoPago:    "Transferencia",
		ProveedorID:   supplier.ID,
		CentroCostoID: center.ID,
		PresupuestoID: budget.ID,
		CuentaID:      checking.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if _, err := store.CreateReceipt(ctx, ledger.ReceiptInput{
		IngresoID: income.ID,
		GastoID:   expense.ID,
		Fecha:     "2026-01-20",
		Monto:     350000,
	}); err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}

	balance, err := store.CreateBalance(ctx, ledger.BalanceInput{
		Fecha:         "2026-01-31",
		Ingresos:      1200000,
		Gastos:        350000,
		PresupuestoID: budget.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}

	if _, err := store.CreateStatement(ctx, ledger.StatementInput{
		Tipo:        ledger.StatementIncomeStatement,
		Fecha:       "2026-01-31",
		Descripcion: "Cierre de enero",
		BalanceID:   balance.ID,
	}); err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}

	if _, err := store.CreateInvoice(ctx, ledger.InvoiceInput{
		Cliente: "Comercial Andina SAS",
		NIT:     "900123456-1",
		Fecha:   "2026-01-15",
		Total:   1200000,
	}); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	if _, err := store.CreateProject(ctx, ledger.ProjectInput{
		Nombre:      "Sede norte",
		Descripcion: "Apertura de la segunda sede",
		Presupuesto: 25000000,
		FechaInicio: "2026-02-01",
		FechaFin:    "2026-11-30",
	}); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if _, err := store.CreateEmployee(ctx, ledger.EmployeeInput{
		Nombre:            "Laura Restrepo",
		Identificacion:    "1020456789",
		Cargo:             "Auxiliar contable",
		Salario:           2600000,
		FechaContratacion: "2026-01-02",
	}); err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}

	log.Println("✅ Seeded demo dataset")
	return nil
}
