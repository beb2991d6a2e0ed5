package ledger_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/ContaSync/CS-Backend/internal/auth"
	"github.com/ContaSync/CS-Backend/internal/config"
	"github.com/ContaSync/CS-Backend/internal/db"
	"github.com/ContaSync/CS-Backend/internal/ledger"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

var (
	gdb   *gorm.DB
	store *ledger.Store
)

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from internal/ledger/).
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// No database available — skip all integration tests gracefully.
		os.Exit(m.Run())
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	gdb, err = db.Open(databaseURL, cfg.Pool)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	dbAvailable = true

	// Set up auth and ledger tables (idempotent). Investments reference
	// app_auth.usuarios, so both schemas are needed.
	if err := auth.Init(gdb); err != nil {
		fmt.Fprintln(os.Stderr, "migrate auth:", err)
		os.Exit(1)
	}
	if err := ledger.Init(gdb); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}

	store = ledger.NewStore(gdb, cfg.Ledger)

	os.Exit(m.Run())
}

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
}

// suffix returns a short unique tag so fixtures never collide with a
// previous run's leftovers.
func suffix() string {
	return uuid.New().String()[:8]
}

func createTestAccount(t *testing.T, opening int64) *ledger.Account {
	t.Helper()
	s := suffix()

	bank, err := store.CreateBank(context.Background(), ledger.BankInput{
		Nombre: "Banco Test " + s,
		Pais:   "Colombia",
		Ciudad: "Bogotá",
	})
	if err != nil {
		t.Fatalf("failed to create bank: %v", err)
	}
	account, err := store.CreateAccount(context.Background(), ledger.AccountInput{
		NumeroCuenta: "test-" + s,
		TipoCuenta:   ledger.AccountChecking,
		BancoID:      bank.ID,
		SaldoActual:  opening,
	})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	t.Cleanup(func() {
		gdb.Where("cuenta_id = ?", account.ID).Delete(&ledger.IncomeTransaction{})
		gdb.Where("cuenta_id = ?", account.ID).Delete(&ledger.ExpenseTransaction{})
		gdb.Delete(&ledger.Account{}, account.ID)
		gdb.Delete(&ledger.Bank{}, bank.ID)
	})
	return account
}

func createTestBudget(t *testing.T, total int64) *ledger.Budget {
	t.Helper()
	s := suffix()

	center, err := store.CreateCostCenter(context.Background(), ledger.CostCenterInput{
		Nombre:      "Centro Test " + s,
		Descripcion: "fixture",
	})
	if err != nil {
		t.Fatalf("failed to create cost center: %v", err)
	}
	budget, err := store.CreateBudget(context.Background(), ledger.BudgetInput{
		Nombre:        "Presupuesto Test " + s,
		MontoTotal:    total,
		FechaInicio:   "2026-01-01",
		FechaFin:      "2026-03-31",
		CentroCostoID: center.ID,
	})
	if err != nil {
		t.Fatalf("failed to create budget: %v", err)
	}

	t.Cleanup(func() {
		gdb.Where("presupuesto_id = ?", budget.ID).Delete(&ledger.ExpenseTransaction{})
		gdb.Delete(&ledger.Budget{}, budget.ID)
		gdb.Delete(&ledger.CostCenter{}, center.ID)
	})
	return budget
}

func createTestExpense(t *testing.T, budgetID int64, monto int64) *ledger.ExpenseTransaction {
	t.Helper()
	expense, _, err := store.CreateExpense(context.Background(), ledger.ExpenseInput{
		Fecha:         "2026-01-15",
		Descripcion:   "gasto fixture " + suffix(),
		Monto:         monto,
		Categoria:     "Operación",
		MetodoPago:    "Efectivo",
		PresupuestoID: budgetID,
	})
	if err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}
	t.Cleanup(func() {
		gdb.Delete(&ledger.ExpenseTransaction{}, expense.ID)
	})
	return expense
}

func TestIncomeDerivesCashBalance(t *testing.T) {
	requireDB(t)

	income, err := store.CreateIncome(context.Background(), ledger.IncomeInput{
		Fecha:         "2026-02-01",
		ValorRecibido: 250000,
		SaldoAnterior: 100000,
		TotalIngresos: 250000,
		NumeroRecibo:  "RC-" + suffix(),
	})
	if err != nil {
		t.Fatalf("failed to create income: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.IncomeTransaction{}, income.ID) })

	if income.SaldoEnCaja == nil || *income.SaldoEnCaja != 350000 {
		t.Errorf("expected saldo_en_caja 350000, got %v", income.SaldoEnCaja)
	}
	if income.TotalIngresos != 250000 {
		t.Errorf("expected total_ingresos 250000, got %d", income.TotalIngresos)
	}
}

func TestIncomeReconcilesAccountBalance(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	account := createTestAccount(t, 0)

	income, err := store.CreateIncome(ctx, ledger.IncomeInput{
		Fecha:         "2026-02-01",
		ValorRecibido: 100000,
		NumeroRecibo:  "RC-" + suffix(),
		CuentaID:      account.ID,
	})
	if err != nil {
		t.Fatalf("failed to create income: %v", err)
	}

	got, err := store.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	if got.SaldoActual != 100000 {
		t.Errorf("after create expected saldo_actual 100000, got %d", got.SaldoActual)
	}

	if err := store.DeleteIncome(ctx, income.ID); err != nil {
		t.Fatalf("failed to delete income: %v", err)
	}
	got, err = store.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	if got.SaldoActual != 0 {
		t.Errorf("after delete expected saldo_actual 0, got %d", got.SaldoActual)
	}
}

func TestIncomeUpdateReversesOldAmount(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	account := createTestAccount(t, 50000)
	recibo := "RC-" + suffix()

	income, err := store.CreateIncome(ctx, ledger.IncomeInput{
		Fecha:         "2026-02-01",
		ValorRecibido: 30000,
		NumeroRecibo:  recibo,
		CuentaID:      account.ID,
	})
	if err != nil {
		t.Fatalf("failed to create income: %v", err)
	}

	if _, err := store.UpdateIncome(ctx, income.ID, ledger.IncomeInput{
		Fecha:         "2026-02-01",
		ValorRecibido: 10000,
		NumeroRecibo:  recibo,
		CuentaID:      account.ID,
	}); err != nil {
		t.Fatalf("failed to update income: %v", err)
	}

	got, err := store.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	if got.SaldoActual != 60000 {
		t.Errorf("expected saldo_actual 60000 after update, got %d", got.SaldoActual)
	}
}

func TestExpenseRejectsInsufficientFunds(t *testing.T) {
	requireDB(t)
	account := createTestAccount(t, 20000)

	_, _, err := store.CreateExpense(context.Background(), ledger.ExpenseInput{
		Fecha:       "2026-02-01",
		Descripcion: "gasto sin fondos",
		Monto:       50000,
		Categoria:   "Operación",
		MetodoPago:  "Efectivo",
		CuentaID:    account.ID,
	})
	if kind, _ := ledger.KindOf(err); kind != ledger.KindInvalidAmount {
		t.Fatalf("expected invalid_amount, got %v", err)
	}
}

func TestDuplicateReceiptNumber(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	recibo := "RC-" + suffix()

	income, err := store.CreateIncome(ctx, ledger.IncomeInput{
		Fecha:         "2026-02-01",
		ValorRecibido: 1000,
		NumeroRecibo:  recibo,
	})
	if err != nil {
		t.Fatalf("failed to create income: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.IncomeTransaction{}, income.ID) })

	_, err = store.CreateIncome(ctx, ledger.IncomeInput{
		Fecha:         "2026-02-02",
		ValorRecibido: 2000,
		NumeroRecibo:  recibo,
	})
	if kind, _ := ledger.KindOf(err); kind != ledger.KindDuplicateKey {
		t.Fatalf("expected duplicate_key, got %v", err)
	}
}

func TestConcurrentDuplicateReceiptNumber(t *testing.T) {
	requireDB(t)
	recibo := "RC-" + suffix()
	t.Cleanup(func() {
		gdb.Where("numero_recibo = ?", recibo).Delete(&ledger.IncomeTransaction{})
	})

	// Two writers race on the same receipt number. Exactly one insert may
	// win; the loser must surface a conflict, never a second row.
	var wg sync.WaitGroup
	var errs [2]error
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.CreateIncome(context.Background(), ledger.IncomeInput{
				Fecha:         "2026-02-01",
				ValorRecibido: 1000 * int64(i+1),
				NumeroRecibo:  recibo,
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		switch kind, _ := ledger.KindOf(err); kind {
		case ledger.KindDuplicateKey, ledger.KindBusy:
			conflicts++
		default:
			t.Errorf("unexpected error from racing create: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly one racing create to win, got %d", successes)
	}
	if conflicts != 1 {
		t.Errorf("expected the losing create to report a conflict, got %d", conflicts)
	}

	var count int64
	if err := gdb.Model(&ledger.IncomeTransaction{}).Where("numero_recibo = ?", recibo).Count(&count).Error; err != nil {
		t.Fatalf("failed to count incomes: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one stored row for %s, got %d", recibo, count)
	}
}

func TestBudgetUtilizationOverrun(t *testing.T) {
	requireDB(t)
	budget := createTestBudget(t, 5000000)
	createTestExpense(t, budget.ID, 2000000)
	createTestExpense(t, budget.ID, 4000000)

	util, err := store.Utilization(context.Background(), budget.ID)
	if err != nil {
		t.Fatalf("failed to read utilization: %v", err)
	}
	if util.Gastado != 6000000 {
		t.Errorf("expected gastado 6000000, got %d", util.Gastado)
	}
	if util.Restante != -1000000 {
		t.Errorf("expected restante -1000000, got %d", util.Restante)
	}
	if !util.Sobregirado {
		t.Error("expected sobregirado true")
	}
}

func TestBudgetOverrunRejectPolicy(t *testing.T) {
	requireDB(t)
	budget := createTestBudget(t, 100000)

	rejecting := ledger.NewStore(gdb, config.Ledger{
		OverrunPolicy: config.OverrunReject,
		LockTimeoutMS: 3000,
		BusyRetries:   3,
	})

	in := ledger.ExpenseInput{
		Fecha:         "2026-02-01",
		Descripcion:   "gasto sobre presupuesto",
		Monto:         150000,
		Categoria:     "Operación",
		MetodoPago:    "Efectivo",
		PresupuestoID: budget.ID,
	}
	_, _, err := rejecting.CreateExpense(context.Background(), in)
	if kind, _ := ledger.KindOf(err); kind != ledger.KindReferentialConflict {
		t.Fatalf("expected referential_conflict, got %v", err)
	}

	in.PermitirSobregiro = true
	expense, util, err := rejecting.CreateExpense(context.Background(), in)
	if err != nil {
		t.Fatalf("override should go through: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.ExpenseTransaction{}, expense.ID) })
	if util == nil || !util.Sobregirado {
		t.Errorf("expected overrun reported with the write, got %+v", util)
	}
}

func TestDeleteBudgetSetsExpenseNull(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	budget := createTestBudget(t, 1000000)
	expense := createTestExpense(t, budget.ID, 200000)

	if err := store.DeleteBudget(ctx, budget.ID); err != nil {
		t.Fatalf("failed to delete budget: %v", err)
	}

	got, err := store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("failed to reload expense: %v", err)
	}
	if got.PresupuestoID != nil {
		t.Errorf("expected presupuesto_id cleared, got %v", *got.PresupuestoID)
	}
}

func TestDeleteBankWithAccountsRejected(t *testing.T) {
	requireDB(t)
	account := createTestAccount(t, 0)

	err := store.DeleteBank(context.Background(), account.BancoID)
	if kind, _ := ledger.KindOf(err); kind != ledger.KindReferentialConflict {
		t.Fatalf("expected referential_conflict, got %v", err)
	}
}

func TestBalanceProfitIsDerived(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	balance, err := store.CreateBalance(ctx, ledger.BalanceInput{
		Fecha:    "2026-02-28",
		Ingresos: 900000,
		Gastos:   400000,
	})
	if err != nil {
		t.Fatalf("failed to create balance: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.Balance{}, balance.ID) })

	if balance.Utilidad != 500000 {
		t.Errorf("expected utilidad 500000, got %d", balance.Utilidad)
	}

	updated, err := store.UpdateBalance(ctx, balance.ID, ledger.BalanceInput{
		Fecha:    "2026-02-28",
		Ingresos: 900000,
		Gastos:   900000,
	})
	if err != nil {
		t.Fatalf("failed to update balance: %v", err)
	}
	if updated.Utilidad != 0 {
		t.Errorf("expected utilidad recomputed to 0, got %d", updated.Utilidad)
	}
}

func TestAssembleBalanceDetail(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	budget := createTestBudget(t, 3000000)
	createTestExpense(t, budget.ID, 500000)

	balance, err := store.CreateBalance(ctx, ledger.BalanceInput{
		Fecha:         "2026-01-31",
		Ingresos:      1000000,
		Gastos:        500000,
		PresupuestoID: budget.ID,
	})
	if err != nil {
		t.Fatalf("failed to create balance: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.Balance{}, balance.ID) })

	detail, err := store.AssembleBalance(ctx, balance.ID)
	if err != nil {
		t.Fatalf("failed to assemble balance: %v", err)
	}
	if detail.Utilidad != 500000 {
		t.Errorf("expected utilidad 500000, got %d", detail.Utilidad)
	}
	if detail.PresupuestoNombre == nil || *detail.PresupuestoNombre != budget.Nombre {
		t.Errorf("expected presupuesto %q, got %v", budget.Nombre, detail.PresupuestoNombre)
	}
}

func TestAssembleBalanceNotFound(t *testing.T) {
	requireDB(t)

	_, err := store.AssembleBalance(context.Background(), -1)
	if kind, _ := ledger.KindOf(err); kind != ledger.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestAssembleRangeOrder(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	first, err := store.CreateBalance(ctx, ledger.BalanceInput{
		Fecha: "2026-03-01", Ingresos: 100, Gastos: 0,
	})
	if err != nil {
		t.Fatalf("failed to create balance: %v", err)
	}
	second, err := store.CreateBalance(ctx, ledger.BalanceInput{
		Fecha: "2026-03-15", Ingresos: 200, Gastos: 0,
	})
	if err != nil {
		t.Fatalf("failed to create balance: %v", err)
	}
	t.Cleanup(func() {
		gdb.Delete(&ledger.Balance{}, first.ID)
		gdb.Delete(&ledger.Balance{}, second.ID)
	})

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	details, err := store.AssembleRange(ctx, from, to)
	if err != nil {
		t.Fatalf("failed to assemble range: %v", err)
	}
	if len(details) < 2 {
		t.Fatalf("expected at least 2 rows, got %d", len(details))
	}
	for i := 1; i < len(details); i++ {
		if details[i].Fecha.After(details[i-1].Fecha) {
			t.Errorf("expected newest first, got %v before %v", details[i-1].Fecha, details[i].Fecha)
		}
	}
}

func createTestProject(t *testing.T) *ledger.Project {
	t.Helper()
	project, err := store.CreateProject(context.Background(), ledger.ProjectInput{
		Nombre:      "Proyecto Test " + suffix(),
		Descripcion: "fixture",
		Presupuesto: 10000000,
		FechaInicio: "2026-01-01",
		FechaFin:    "2026-12-31",
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	t.Cleanup(func() {
		gdb.Where("proyecto_id = ?", project.ID).Delete(&ledger.Investment{})
		gdb.Delete(&ledger.Project{}, project.ID)
	})
	return project
}

func createTestUser(t *testing.T) *auth.User {
	t.Helper()
	user := &auth.User{
		Nombre:           "Inversor Test " + suffix(),
		Email:            "inversor_" + suffix() + "@contasync.test",
		HashedContrasena: "not-a-real-hash",
		Rol:              "contador",
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&auth.User{}, user.ID) })
	return user
}

func TestInvoiceRoundTrip(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	invoice, err := store.CreateInvoice(ctx, ledger.InvoiceInput{
		Cliente: "Cliente Factura " + suffix(),
		NIT:     "900123456-7",
		Fecha:   "2026-04-01",
		Total:   480000,
	})
	if err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.Invoice{}, invoice.ID) })

	updated, err := store.UpdateInvoice(ctx, invoice.ID, ledger.InvoiceInput{
		Cliente: invoice.Cliente,
		NIT:     invoice.NIT,
		Fecha:   "2026-04-01",
		Total:   520000,
	})
	if err != nil {
		t.Fatalf("failed to update invoice: %v", err)
	}
	if updated.Total != 520000 {
		t.Errorf("expected total 520000 after update, got %d", updated.Total)
	}

	_, err = store.CreateInvoice(ctx, ledger.InvoiceInput{Cliente: "sin nit", Fecha: "2026-04-01", Total: 1})
	if kind, _ := ledger.KindOf(err); kind != ledger.KindInvalidInput {
		t.Fatalf("expected invalid_input for missing nit, got %v", err)
	}
}

func TestProjectRejectsInvertedDates(t *testing.T) {
	requireDB(t)

	_, err := store.CreateProject(context.Background(), ledger.ProjectInput{
		Nombre:      "Proyecto Invertido " + suffix(),
		Descripcion: "fechas al revés",
		Presupuesto: 1000000,
		FechaInicio: "2026-06-01",
		FechaFin:    "2026-01-01",
	})
	if kind, _ := ledger.KindOf(err); kind != ledger.KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestInvestmentJoinsNames(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	user := createTestUser(t)
	project := createTestProject(t)

	investment, err := store.CreateInvestment(ctx, ledger.InvestmentInput{
		UsuarioID:               user.ID,
		ProyectoID:              project.ID,
		MontoInvertido:          2500000,
		PorcentajeParticipacion: 12.5,
	})
	if err != nil {
		t.Fatalf("failed to create investment: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.Investment{}, investment.ID) })

	views, err := store.ListInvestments(ctx)
	if err != nil {
		t.Fatalf("failed to list investments: %v", err)
	}
	var found *ledger.InvestmentView
	for i := range views {
		if views[i].ID == investment.ID {
			found = &views[i]
			break
		}
	}
	if found == nil {
		t.Fatal("created investment missing from list")
	}
	if found.NombreUsuario == nil || *found.NombreUsuario != user.Nombre {
		t.Errorf("expected nombre_usuario %q, got %v", user.Nombre, found.NombreUsuario)
	}
	if found.NombreProyecto == nil || *found.NombreProyecto != project.Nombre {
		t.Errorf("expected nombre_proyecto %q, got %v", project.Nombre, found.NombreProyecto)
	}
	if found.PorcentajeParticipacion != 12.5 {
		t.Errorf("expected porcentaje 12.5, got %v", found.PorcentajeParticipacion)
	}
}

func TestInvestmentRejectsUnknownUser(t *testing.T) {
	requireDB(t)
	project := createTestProject(t)

	_, err := store.CreateInvestment(context.Background(), ledger.InvestmentInput{
		UsuarioID:               int64(999999999),
		ProyectoID:              project.ID,
		MontoInvertido:          100000,
		PorcentajeParticipacion: 1.0,
	})
	if kind, _ := ledger.KindOf(err); kind != ledger.KindInvalidReference {
		t.Fatalf("expected invalid_reference, got %v", err)
	}
}

func TestDeleteProjectWithInvestmentsRejected(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	user := createTestUser(t)
	project := createTestProject(t)

	investment, err := store.CreateInvestment(ctx, ledger.InvestmentInput{
		UsuarioID:               user.ID,
		ProyectoID:              project.ID,
		MontoInvertido:          500000,
		PorcentajeParticipacion: 5.0,
	})
	if err != nil {
		t.Fatalf("failed to create investment: %v", err)
	}

	err = store.DeleteProject(ctx, project.ID)
	if kind, _ := ledger.KindOf(err); kind != ledger.KindReferentialConflict {
		t.Fatalf("expected referential_conflict, got %v", err)
	}

	if err := store.DeleteInvestment(ctx, investment.ID); err != nil {
		t.Fatalf("failed to delete investment: %v", err)
	}
	if err := store.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("delete should succeed once investments are gone: %v", err)
	}
}

func TestEmployeeDuplicateIdentification(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	cedula := "CC-" + suffix()

	employee, err := store.CreateEmployee(ctx, ledger.EmployeeInput{
		Nombre:            "Empleado Test " + suffix(),
		Identificacion:    cedula,
		Cargo:             "Auxiliar contable",
		Salario:           2600000,
		FechaContratacion: "2026-01-15",
	})
	if err != nil {
		t.Fatalf("failed to create employee: %v", err)
	}
	t.Cleanup(func() { gdb.Delete(&ledger.Employee{}, employee.ID) })

	_, err = store.CreateEmployee(ctx, ledger.EmployeeInput{
		Nombre:            "Otro Empleado " + suffix(),
		Identificacion:    cedula,
		Salario:           3000000,
		FechaContratacion: "2026-02-01",
	})
	kind, _ := ledger.KindOf(err)
	if kind != ledger.KindDuplicateKey {
		t.Fatalf("expected duplicate_key, got %v", err)
	}
}
