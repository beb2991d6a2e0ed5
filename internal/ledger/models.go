package ledger

import (
	"time"
)

// Account types accepted by cuentas.
const (
	AccountSavings  = "Ahorro"
	AccountChecking = "Corriente"
)

// Financial statement types.
const (
	StatementBalanceSheet    = "balance_general"
	StatementIncomeStatement = "estado_resultados"
)

type Bank struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Nombre    string    `gorm:"not null" json:"nombre"`
	Pais      string    `json:"pais"`
	Ciudad    string    `json:"ciudad"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Cuentas []Account `gorm:"foreignKey:BancoID" json:"cuentas,omitempty"`
}

func (Bank) TableName() string { return "ledger.bancos" }

// Account is a bank account. SaldoActual is owned by the reconciliation
// engine: a plain update never touches it.
type Account struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	NumeroCuenta string    `gorm:"uniqueIndex;not null" json:"numero_cuenta"`
	TipoCuenta   string    `gorm:"not null" json:"tipo_cuenta"`
	BancoID      int64     `gorm:"not null;index" json:"banco_id"`
	SaldoActual  int64     `gorm:"not null;default:0;check:saldo_actual >= 0" json:"saldo_actual"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Banco Bank `gorm:"foreignKey:BancoID" json:"banco,omitempty"`
}

func (Account) TableName() string { return "ledger.cuentas" }

type Client struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Nombre         string    `gorm:"not null" json:"nombre"`
	Identificacion string    `gorm:"uniqueIndex;not null" json:"identificacion"`
	Telefono       string    `json:"telefono"`
	Email          string    `json:"email"`
	Direccion      string    `json:"direccion"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Client) TableName() string { return "ledger.clientes" }

type Supplier struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Nombre         string    `gorm:"not null" json:"nombre"`
	Identificacion string    `gorm:"uniqueIndex;not null" json:"identificacion"`
	Telefono       string    `json:"telefono"`
	Email          string    `json:"email"`
	Direccion      string    `json:"direccion"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Supplier) TableName() string { return "ledger.proveedores" }

type CostCenter struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Nombre      string    `gorm:"uniqueIndex;not null" json:"nombre"`
	Descripcion string    `json:"descripcion"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Presupuestos []Budget `gorm:"foreignKey:CentroCostoID" json:"presupuestos,omitempty"`
}

func (CostCenter) TableName() string { return "ledger.centros_costos" }

type Budget struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Nombre        string    `gorm:"uniqueIndex;not null" json:"nombre"`
	MontoTotal    int64     `gorm:"not null" json:"monto_total"`
	FechaInicio   time.Time `gorm:"not null" json:"fecha_inicio"`
	FechaFin      time.Time `gorm:"not null" json:"fecha_fin"`
	CentroCostoID int64     `gorm:"not null;index" json:"centro_costo_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	CentroCosto CostCenter `gorm:"foreignKey:CentroCostoID" json:"centro_costo,omitempty"`
}

func (Budget) TableName() string { return "ledger.presupuestos" }

// IncomeTransaction records money received. SaldoEnCaja is derived
// (valor_recibido + saldo_anterior) whenever both operands are present.
type IncomeTransaction struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Fecha         time.Time `gorm:"not null" json:"fecha"`
	ValorRecibido int64     `gorm:"not null" json:"valor_recibido"`
	SaldoAnterior *int64    `json:"saldo_anterior,omitempty"`
	SaldoEnCaja   *int64    `json:"saldo_en_caja,omitempty"`
	TotalIngresos int64     `json:"total_ingresos"`
	NumeroRecibo  string    `gorm:"uniqueIndex;not null" json:"numero_recibo"`
	ClienteID     *int64    `gorm:"index" json:"cliente_id,omitempty"`
	CuentaID      *int64    `gorm:"index" json:"cuenta_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Cliente *Client  `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`
	Cuenta  *Account `gorm:"foreignKey:CuentaID" json:"cuenta,omitempty"`
}

func (IncomeTransaction) TableName() string { return "ledger.ingresos" }

type ExpenseTransaction struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Fecha         time.Time `gorm:"not null" json:"fecha"`
	Descripcion   string    `gorm:"not null" json:"descripcion"`
	Monto         int64     `gorm:"not null" json:"monto"`
	Categoria     string    `json:"categoria"`
	MetodoPago    string    `json:"metodo_pago"`
	ProveedorID   *int64    `gorm:"index" json:"proveedor_id,omitempty"`
	CentroCostoID *int64    `gorm:"index" json:"centro_costo_id,omitempty"`
	PresupuestoID *int64    `gorm:"index" json:"presupuesto_id,omitempty"`
	CuentaID      *int64    `gorm:"index" json:"cuenta_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Proveedor   *Supplier   `gorm:"foreignKey:ProveedorID" json:"proveedor,omitempty"`
	CentroCosto *CostCenter `gorm:"foreignKey:CentroCostoID" json:"centro_costo,omitempty"`
	Presupuesto *Budget     `gorm:"foreignKey:PresupuestoID" json:"presupuesto,omitempty"`
	Cuenta      *Account    `gorm:"foreignKey:CuentaID" json:"cuenta,omitempty"`
}

func (ExpenseTransaction) TableName() string { return "ledger.gastos" }

// Receipt is a reconciliation record linking one income and one expense. It
// is not a source document; it lives and dies with its legs.
type Receipt struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	IngresoID int64     `gorm:"not null;index" json:"ingreso_id"`
	GastoID   int64     `gorm:"not null;index" json:"gasto_id"`
	Fecha     time.Time `gorm:"not null" json:"fecha"`
	Monto     int64     `gorm:"not null" json:"monto"`
	CreatedAt time.Time `json:"created_at"`

	Ingreso IncomeTransaction  `gorm:"foreignKey:IngresoID" json:"ingreso,omitempty"`
	Gasto   ExpenseTransaction `gorm:"foreignKey:GastoID" json:"gasto,omitempty"`
}

func (Receipt) TableName() string { return "ledger.recibos" }

// Balance is a period snapshot. Utilidad is always ingresos - gastos,
// recomputed on every write; a client-supplied value is ignored.
type Balance struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Fecha         time.Time `gorm:"not null" json:"fecha"`
	Ingresos      int64     `gorm:"not null" json:"ingresos"`
	Gastos        int64     `gorm:"not null" json:"gastos"`
	Utilidad      int64     `gorm:"not null" json:"utilidad"`
	PresupuestoID *int64    `gorm:"index" json:"presupuesto_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Presupuesto *Budget `gorm:"foreignKey:PresupuestoID" json:"presupuesto,omitempty"`
}

func (Balance) TableName() string { return "ledger.balance" }

type FinancialStatement struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Tipo        string    `gorm:"not null" json:"tipo"`
	Fecha       time.Time `gorm:"not null" json:"fecha"`
	Descripcion string    `json:"descripcion"`
	BalanceID   *int64    `gorm:"index" json:"balance_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Balance *Balance `gorm:"foreignKey:BalanceID" json:"balance,omitempty"`
}

func (FinancialStatement) TableName() string { return "ledger.estados_financieros" }

// Invoice is a billing record kept alongside the ledger. Cliente here is a
// free-text name, not a FK into clientes; invoices predate that table.
type Invoice struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Cliente   string    `gorm:"not null" json:"cliente"`
	NIT       string    `gorm:"column:nit;not null" json:"nit"`
	Fecha     time.Time `gorm:"not null" json:"fecha"`
	Total     int64     `gorm:"not null" json:"total"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Invoice) TableName() string { return "ledger.facturas" }

type Project struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Nombre      string    `gorm:"not null" json:"nombre"`
	Descripcion string    `gorm:"not null" json:"descripcion"`
	Presupuesto int64     `gorm:"not null" json:"presupuesto"`
	FechaInicio time.Time `gorm:"not null" json:"fecha_inicio"`
	FechaFin    time.Time `gorm:"not null" json:"fecha_fin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Project) TableName() string { return "ledger.proyectos" }

// Investment ties a registered user to a project stake. UsuarioID points at
// app_auth.usuarios, so its existence check goes through a table query
// rather than a model reference.
type Investment struct {
	ID                      int64     `gorm:"primaryKey" json:"id"`
	UsuarioID               int64     `gorm:"not null;index" json:"usuario_id"`
	ProyectoID              int64     `gorm:"not null;index" json:"proyecto_id"`
	MontoInvertido          int64     `gorm:"not null" json:"monto_invertido"`
	PorcentajeParticipacion float64   `gorm:"not null" json:"porcentaje_participacion"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`

	Proyecto Project `gorm:"foreignKey:ProyectoID" json:"proyecto,omitempty"`
}

func (Investment) TableName() string { return "ledger.inversiones" }

type Employee struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	Nombre            string    `gorm:"not null" json:"nombre"`
	Identificacion    string    `gorm:"uniqueIndex;not null" json:"identificacion"`
	Cargo             string    `json:"cargo"`
	Salario           int64     `gorm:"not null" json:"salario"`
	FechaContratacion time.Time `gorm:"not null" json:"fecha_contratacion"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Employee) TableName() string { return "ledger.empleados" }
