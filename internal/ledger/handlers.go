package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the store over HTTP. It owns no state beyond the store
// handle; every request runs to completion against durable storage.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func statusForKind(kind Kind) int {
	switch kind {
	case KindInvalidInput, KindInvalidAmount, KindInvalidReference:
		return http.StatusBadRequest
	case KindDuplicateKey, KindReferentialConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindBusy:
		return http.StatusTooManyRequests
	case KindResourceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var le *Error
	if errors.As(err, &le) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusForKind(le.Kind))
		json.NewEncoder(w).Encode(le)
		return
	}
	http.Error(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errf(KindInvalidInput, "id", "invalid id in path")
	}
	return id, nil
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errf(KindInvalidInput, "", "invalid request body")
	}
	return nil
}

// ---- bancos ----

func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.store.ListBanks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, banks)
}

func (h *Handler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var in BankInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	bank, err := h.store.CreateBank(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bank)
}

func (h *Handler) UpdateBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in BankInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	bank, err := h.store.UpdateBank(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (h *Handler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteBank(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- cuentas ----

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	account, err := h.store.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in AccountInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	account, err := h.store.CreateAccount(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in AccountInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	account, err := h.store.UpdateAccount(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- clientes ----

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in PartyInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	client, err := h.store.CreateClient(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in PartyInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	client, err := h.store.UpdateClient(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteClient(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- proveedores ----

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.store.ListSuppliers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var in PartyInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	supplier, err := h.store.CreateSupplier(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplier)
}

func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in PartyInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	supplier, err := h.store.UpdateSupplier(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteSupplier(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- centros de costos ----

func (h *Handler) ListCostCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.store.ListCostCenters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, centers)
}

func (h *Handler) CreateCostCenter(w http.ResponseWriter, r *http.Request) {
	var in CostCenterInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	center, err := h.store.CreateCostCenter(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, center)
}

func (h *Handler) UpdateCostCenter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in CostCenterInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	center, err := h.store.UpdateCostCenter(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, center)
}

func (h *Handler) DeleteCostCenter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteCostCenter(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- presupuestos ----

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.store.ListBudgets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	budget, err := h.store.GetBudget(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var in BudgetInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	budget, err := h.store.CreateBudget(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in BudgetInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	budget, err := h.store.UpdateBudget(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteBudget(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BudgetUtilization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	util, err := h.store.Utilization(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, util)
}

// ---- ingresos ----

func (h *Handler) ListIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := h.store.ListIncomes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incomes)
}

func (h *Handler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	var in IncomeInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	income, err := h.store.CreateIncome(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, income)
}

func (h *Handler) UpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in IncomeInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	income, err := h.store.UpdateIncome(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, income)
}

func (h *Handler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteIncome(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- gastos ----

// expenseResponse carries the written row plus the budget boundary report
// when the expense charged a budget.
type expenseResponse struct {
	Gasto       *ExpenseTransaction `json:"gasto"`
	Presupuesto *Utilization        `json:"presupuesto,omitempty"`
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.store.ListExpenses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var in ExpenseInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	expense, util, err := h.store.CreateExpense(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{Gasto: expense, Presupuesto: util})
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in ExpenseInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	expense, util, err := h.store.UpdateExpense(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse{Gasto: expense, Presupuesto: util})
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- recibos ----

func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.store.ListReceipts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (h *Handler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var in ReceiptInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.store.CreateReceipt(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteReceipt(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- balances ----

func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.store.ListBalances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *Handler) CreateBalance(w http.ResponseWriter, r *http.Request) {
	var in BalanceInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.store.CreateBalance(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, balance)
}

func (h *Handler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in BalanceInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.store.UpdateBalance(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *Handler) DeleteBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteBalance(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BalanceDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.store.AssembleBalance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) BalanceRange(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate("desde", r.URL.Query().Get("desde"), true)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDate("hasta", r.URL.Query().Get("hasta"), true)
	if err != nil {
		writeError(w, err)
		return
	}
	details, err := h.store.AssembleRange(r.Context(), from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// ---- estados financieros ----

type statementResponse struct {
	Estado  *FinancialStatement `json:"estado"`
	Balance *BalanceDetail      `json:"balance,omitempty"`
}

func (h *Handler) ListStatements(w http.ResponseWriter, r *http.Request) {
	statements, err := h.store.ListStatements(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statements)
}

func (h *Handler) CreateStatement(w http.ResponseWriter, r *http.Request) {
	var in StatementInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	statement, err := h.store.CreateStatement(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, statement)
}

func (h *Handler) UpdateStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in StatementInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	statement, err := h.store.UpdateStatement(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

func (h *Handler) DeleteStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteStatement(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StatementDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	statement, detail, err := h.store.AssembleStatement(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{Estado: statement, Balance: detail})
}

// ---- facturas ----

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var in InvoiceInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	invoice, err := h.store.CreateInvoice(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in InvoiceInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	invoice, err := h.store.UpdateInvoice(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteInvoice(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- proyectos ----

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	project, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in ProjectInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	project, err := h.store.CreateProject(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in ProjectInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	project, err := h.store.UpdateProject(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteProject(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- inversiones ----

func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.store.ListInvestments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investments)
}

func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var in InvestmentInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	investment, err := h.store.CreateInvestment(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, investment)
}

func (h *Handler) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in InvestmentInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	investment, err := h.store.UpdateInvestment(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investment)
}

func (h *Handler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteInvestment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- empleados ----

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in EmployeeInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	employee, err := h.store.CreateEmployee(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in EmployeeInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	employee, err := h.store.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.DeleteEmployee(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
