package ledger

import (
	"context"
	"time"

	"github.com/lib/pq"
)

// BalanceDetail is the denormalized view the report renderer consumes:
// balance snapshot, its budget, the budget's cost center, and the expense
// categories charged to that budget.
type BalanceDetail struct {
	BalanceID         int64          `json:"balance_id"`
	Fecha             time.Time      `json:"fecha"`
	Ingresos          int64          `json:"ingresos"`
	Gastos            int64          `json:"gastos"`
	Utilidad          int64          `json:"utilidad"`
	PresupuestoID     *int64         `json:"presupuesto_id,omitempty"`
	PresupuestoNombre *string        `json:"presupuesto_nombre,omitempty"`
	MontoTotal        *int64         `json:"monto_total,omitempty"`
	CentroCostoNombre *string        `json:"centro_costo_nombre,omitempty"`
	Categorias        pq.StringArray `gorm:"type:text[]" json:"categorias"`
}

const balanceDetailQuery = `
SELECT b.id AS balance_id, b.fecha, b.ingresos, b.gastos, b.utilidad,
       b.presupuesto_id, p.nombre AS presupuesto_nombre, p.monto_total,
       cc.nombre AS centro_costo_nombre,
       COALESCE((SELECT array_agg(DISTINCT g.categoria)
                 FROM ledger.gastos g
                 WHERE g.presupuesto_id = b.presupuesto_id
                   AND g.categoria <> ''), '{}') AS categorias
FROM ledger.balance b
LEFT JOIN ledger.presupuestos p ON b.presupuesto_id = p.id
LEFT JOIN ledger.centros_costos cc ON p.centro_costo_id = cc.id`

// AssembleBalance joins one balance with its budget and cost center.
// Pure projection; NotFound when the balance id does not exist.
func (s *Store) AssembleBalance(ctx context.Context, balanceID int64) (*BalanceDetail, error) {
	var details []BalanceDetail
	err := s.db.WithContext(ctx).
		Raw(balanceDetailQuery+" WHERE b.id = ?", balanceID).
		Scan(&details).Error
	if err != nil {
		return nil, translate(err, false)
	}
	if len(details) == 0 {
		return nil, errf(KindNotFound, "balance_id", "balance %d does not exist", balanceID)
	}
	return &details[0], nil
}

// AssembleRange returns the same view for every balance dated inside
// [from, to], newest first.
func (s *Store) AssembleRange(ctx context.Context, from, to time.Time) ([]BalanceDetail, error) {
	var details []BalanceDetail
	err := s.db.WithContext(ctx).
		Raw(balanceDetailQuery+" WHERE b.fecha BETWEEN ? AND ? ORDER BY b.fecha DESC", from, to).
		Scan(&details).Error
	if err != nil {
		return nil, translate(err, false)
	}
	return details, nil
}

// AssembleStatement resolves a financial statement to its balance detail.
func (s *Store) AssembleStatement(ctx context.Context, statementID int64) (*FinancialStatement, *BalanceDetail, error) {
	var statement FinancialStatement
	if err := s.db.WithContext(ctx).First(&statement, "id = ?", statementID).Error; err != nil {
		return nil, nil, translate(err, false)
	}
	if statement.BalanceID == nil {
		return &statement, nil, nil
	}
	detail, err := s.AssembleBalance(ctx, *statement.BalanceID)
	if err != nil {
		return nil, nil, err
	}
	return &statement, detail, nil
}
