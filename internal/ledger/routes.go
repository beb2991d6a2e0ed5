package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ContaSync/CS-Backend/internal/middleware"
)

// SetupRoutes mounts the accounting API. Reads are public; mutations sit
// behind the session middleware like every other module.
func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Get("/bancos", h.ListBanks)
	r.Get("/cuentas", h.ListAccounts)
	r.Get("/cuentas/{id}", h.GetAccount)
	r.Get("/clientes", h.ListClients)
	r.Get("/proveedores", h.ListSuppliers)
	r.Get("/centros-costos", h.ListCostCenters)
	r.Get("/presupuestos", h.ListBudgets)
	r.Get("/presupuestos/{id}", h.GetBudget)
	r.Get("/presupuestos/{id}/utilizacion", h.BudgetUtilization)
	r.Get("/ingresos", h.ListIncomes)
	r.Get("/gastos", h.ListExpenses)
	r.Get("/recibos", h.ListReceipts)
	r.Get("/balances", h.ListBalances)
	r.Get("/balances/{id}/detalle", h.BalanceDetail)
	r.Get("/balances/detalle", h.BalanceRange)
	r.Get("/estados-financieros", h.ListStatements)
	r.Get("/estados-financieros/{id}/detalle", h.StatementDetail)
	r.Get("/facturas", h.ListInvoices)
	r.Get("/proyectos", h.ListProjects)
	r.Get("/proyectos/{id}", h.GetProject)
	r.Get("/inversiones", h.ListInvestments)
	r.Get("/empleados", h.ListEmployees)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))

		r.Post("/bancos", h.CreateBank)
		r.Put("/bancos/{id}", h.UpdateBank)
		r.Delete("/bancos/{id}", h.DeleteBank)

		r.Post("/cuentas", h.CreateAccount)
		r.Put("/cuentas/{id}", h.UpdateAccount)
		r.Delete("/cuentas/{id}", h.DeleteAccount)

		r.Post("/clientes", h.CreateClient)
		r.Put("/clientes/{id}", h.UpdateClient)
		r.Delete("/clientes/{id}", h.DeleteClient)

		r.Post("/proveedores", h.CreateSupplier)
		r.Put("/proveedores/{id}", h.UpdateSupplier)
		r.Delete("/proveedores/{id}", h.DeleteSupplier)

		r.Post("/centros-costos", h.CreateCostCenter)
		r.Put("/centros-costos/{id}", h.UpdateCostCenter)
		r.Delete("/centros-costos/{id}", h.DeleteCostCenter)

		r.Post("/presupuestos", h.CreateBudget)
		r.Put("/presupuestos/{id}", h.UpdateBudget)
		r.Delete("/presupuestos/{id}", h.DeleteBudget)

		r.Post("/ingresos", h.CreateIncome)
		r.Put("/ingresos/{id}", h.UpdateIncome)
		r.Delete("/ingresos/{id}", h.DeleteIncome)

		r.Post("/gastos", h.CreateExpense)
		r.Put("/gastos/{id}", h.UpdateExpense)
		r.Delete("/gastos/{id}", h.DeleteExpense)

		r.Post("/recibos", h.CreateReceipt)
		r.Delete("/recibos/{id}", h.DeleteReceipt)

		r.Post("/balances", h.CreateBalance)
		r.Put("/balances/{id}", h.UpdateBalance)
		r.Delete("/balances/{id}", h.DeleteBalance)

		r.Post("/estados-financieros", h.CreateStatement)
		r.Put("/estados-financieros/{id}", h.UpdateStatement)
		r.Delete("/estados-financieros/{id}", h.DeleteStatement)

		r.Post("/facturas", h.CreateInvoice)
		r.Put("/facturas/{id}", h.UpdateInvoice)
		r.Delete("/facturas/{id}", h.DeleteInvoice)

		r.Post("/proyectos", h.CreateProject)
		r.Put("/proyectos/{id}", h.UpdateProject)
		r.Delete("/proyectos/{id}", h.DeleteProject)

		r.Post("/inversiones", h.CreateInvestment)
		r.Put("/inversiones/{id}", h.UpdateInvestment)
		r.Delete("/inversiones/{id}", h.DeleteInvestment)

		r.Post("/empleados", h.CreateEmployee)
		r.Put("/empleados/{id}", h.UpdateEmployee)
		r.Delete("/empleados/{id}", h.DeleteEmployee)
	})

	return r
}
