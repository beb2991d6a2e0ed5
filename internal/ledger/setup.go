package ledger

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ContaSync/CS-Backend/internal/db"
)

// Init creates the ledger schema and migrates every table. Idempotent.
func Init(gdb *gorm.DB) error {
	if err := db.EnsureSchema(gdb, "ledger"); err != nil {
		return fmt.Errorf("ensure schema ledger: %w", err)
	}

	if err := gdb.AutoMigrate(
		&Bank{},
		&Account{},
		&Client{},
		&Supplier{},
		&CostCenter{},
		&Budget{},
		&IncomeTransaction{},
		&ExpenseTransaction{},
		&Receipt{},
		&Balance{},
		&FinancialStatement{},
		&Invoice{},
		&Project{},
		&Investment{},
		&Employee{},
	); err != nil {
		return fmt.Errorf("auto-migrate ledger tables: %w", err)
	}

	// Covering index for the utilization aggregate.
	if err := gdb.Exec(`
		CREATE INDEX IF NOT EXISTS idx_gastos_presupuesto_monto
		ON ledger.gastos (presupuesto_id, monto);
	`).Error; err != nil {
		return fmt.Errorf("create idx_gastos_presupuesto_monto: %w", err)
	}

	return nil
}
