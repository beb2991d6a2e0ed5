package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Utilization is the read-side view of a budget's soft cap. Gastado is
// summed at query time rather than maintained as a counter, so it cannot
// drift from the expense rows.
type Utilization struct {
	PresupuestoID int64 `json:"presupuesto_id"`
	Asignado      int64 `json:"asignado"`
	Gastado       int64 `json:"gastado"`
	Restante      int64 `json:"restante"`
	Sobregirado   bool  `json:"sobregirado"`
}

func utilizationTx(tx *gorm.DB, budgetID int64) (*Utilization, error) {
	var budget Budget
	if err := tx.First(&budget, "id = ?", budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errf(KindNotFound, "presupuesto_id", "presupuesto %d does not exist", budgetID)
		}
		return nil, err
	}

	var gastado int64
	err := tx.Model(&ExpenseTransaction{}).
		Where("presupuesto_id = ?", budgetID).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&gastado).Error
	if err != nil {
		return nil, err
	}

	return &Utilization{
		PresupuestoID: budgetID,
		Asignado:      budget.MontoTotal,
		Gastado:       gastado,
		Restante:      budget.MontoTotal - gastado,
		Sobregirado:   gastado > budget.MontoTotal,
	}, nil
}

// Utilization reports allocated vs. spent for one budget. Pure read; it
// performs no writes and needs no transaction.
func (s *Store) Utilization(ctx context.Context, budgetID int64) (*Utilization, error) {
	util, err := utilizationTx(s.db.WithContext(ctx), budgetID)
	if err != nil {
		return nil, translate(err, false)
	}
	return util, nil
}
