package ledger

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/ContaSync/CS-Backend/internal/money"
)

// Back-office records: invoices, projects, investments, and employees.
// Plain CRUD over the same store machinery; only investments carry
// relationships (user stake in a project).

// parsePercent normalizes a participation percentage. Unlike monetary
// fields it keeps fractional values, so it cannot go through ParseAmount.
func parsePercent(field string, v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, errf(KindInvalidInput, field, "%s is required", field)
	case int:
		return checkPercent(field, float64(n))
	case int64:
		return checkPercent(field, float64(n))
	case float64:
		return checkPercent(field, n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errf(KindInvalidInput, field, "invalid percentage %q", n.String())
		}
		return checkPercent(field, f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errf(KindInvalidInput, field, "invalid percentage %q", n)
		}
		return checkPercent(field, f)
	default:
		return 0, errf(KindInvalidInput, field, "unsupported type %T", v)
	}
}

func checkPercent(field string, f float64) (float64, error) {
	if math.IsNaN(f) || f < 0 || f > 100 {
		return 0, errf(KindInvalidInput, field, "percentage %v out of range [0, 100]", f)
	}
	return f, nil
}

// ---- facturas ----

type InvoiceInput struct {
	Cliente string `json:"cliente"`
	NIT     string `json:"nit"`
	Fecha   string `json:"fecha"`
	Total   any    `json:"total"`
}

func (s *Store) parseInvoice(in InvoiceInput) (*Invoice, error) {
	if in.Cliente == "" {
		return nil, errf(KindInvalidInput, "cliente", "cliente is required")
	}
	if in.NIT == "" {
		return nil, errf(KindInvalidInput, "nit", "nit is required")
	}
	fecha, err := parseDate("fecha", in.Fecha, true)
	if err != nil {
		return nil, err
	}
	total, err := money.ParseAmount(in.Total)
	if err != nil {
		return nil, errf(KindInvalidAmount, "total", "%v", err)
	}
	return &Invoice{Cliente: in.Cliente, NIT: in.NIT, Fecha: fecha, Total: total}, nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&invoices).Error; err != nil {
		return nil, translate(err, false)
	}
	return invoices, nil
}

func (s *Store) CreateInvoice(ctx context.Context, in InvoiceInput) (*Invoice, error) {
	invoice, err := s.parseInvoice(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		return tx.Create(invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, id int64, in InvoiceInput) (*Invoice, error) {
	parsed, err := s.parseInvoice(in)
	if err != nil {
		return nil, err
	}
	var invoice Invoice
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&invoice).Updates(map[string]any{
			"cliente": parsed.Cliente,
			"nit":     parsed.NIT,
			"fecha":   parsed.Fecha,
			"total":   parsed.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var invoice Invoice
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&invoice).Error
	})
}

// ---- proyectos ----

type ProjectInput struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Presupuesto any    `json:"presupuesto"`
	FechaInicio string `json:"fecha_inicio"`
	FechaFin    string `json:"fecha_fin"`
}

func (s *Store) parseProject(in ProjectInput) (*Project, error) {
	if in.Nombre == "" {
		return nil, errf(KindInvalidInput, "nombre", "nombre is required")
	}
	if in.Descripcion == "" {
		return nil, errf(KindInvalidInput, "descripcion", "descripcion is required")
	}
	presupuesto, err := money.ParseAmount(in.Presupuesto)
	if err != nil {
		return nil, errf(KindInvalidAmount, "presupuesto", "%v", err)
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
	return &Project{
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		Presupuesto: presupuesto,
		FechaInicio: inicio,
		FechaFin:    fin,
	}, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&projects).Error; err != nil {
		return nil, translate(err, false)
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	var project Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, translate(err, false)
	}
	return &project, nil
}

func (s *Store) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	project, err := s.parseProject(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		return tx.Create(project).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Store) UpdateProject(ctx context.Context, id int64, in ProjectInput) (*Project, error) {
	parsed, err := s.parseProject(in)
	if err != nil {
		return nil, err
	}
	var project Project
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&project).Updates(map[string]any{
			"nombre":       parsed.Nombre,
			"descripcion":  parsed.Descripcion,
			"presupuesto":  parsed.Presupuesto,
			"fecha_inicio": parsed.FechaInicio,
			"fecha_fin":    parsed.FechaFin,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var project Project
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			return err
		}
		if err := s.applyDeletePolicy(tx, "proyectos", id); err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
}

// ---- inversiones ----

type InvestmentInput struct {
	UsuarioID               any `json:"usuario_id"`
	ProyectoID              any `json:"proyecto_id"`
	MontoInvertido          any `json:"monto_invertido"`
	PorcentajeParticipacion any `json:"porcentaje_participacion"`
}

// InvestmentView is the list projection: the stake joined with the names of
// the investing user and the project.
type InvestmentView struct {
	ID                      int64   `json:"id"`
	UsuarioID               int64   `json:"usuario_id"`
	ProyectoID              int64   `json:"proyecto_id"`
	MontoInvertido          int64   `json:"monto_invertido"`
	PorcentajeParticipacion float64 `json:"porcentaje_participacion"`
	NombreUsuario           *string `json:"nombre_usuario,omitempty"`
	NombreProyecto          *string `json:"nombre_proyecto,omitempty"`
}

const investmentViewQuery = `
SELECT inv.id, inv.usuario_id, inv.proyecto_id,
       inv.monto_invertido, inv.porcentaje_participacion,
       u.nombre AS nombre_usuario,
       p.nombre AS nombre_proyecto
FROM ledger.inversiones inv
LEFT JOIN app_auth.usuarios u ON inv.usuario_id = u.id
LEFT JOIN ledger.proyectos p ON inv.proyecto_id = p.id
ORDER BY inv.id ASC`

func (s *Store) parseInvestment(in InvestmentInput) (*Investment, error) {
	usuarioID, err := money.ParseRef(in.UsuarioID)
	if err != nil {
		return nil, errf(KindInvalidReference, "usuario_id", "%v", err)
	}
	if usuarioID == nil {
		return nil, errf(KindInvalidReference, "usuario_id", "usuario_id is required")
	}
	proyectoID, err := money.ParseRef(in.ProyectoID)
	if err != nil {
		return nil, errf(KindInvalidReference, "proyecto_id", "%v", err)
	}
	if proyectoID == nil {
		return nil, errf(KindInvalidReference, "proyecto_id", "proyecto_id is required")
	}
	monto, err := money.ParseAmount(in.MontoInvertido)
	if err != nil {
		return nil, errf(KindInvalidAmount, "monto_invertido", "%v", err)
	}
	porcentaje, err := parsePercent("porcentaje_participacion", in.PorcentajeParticipacion)
	if err != nil {
		return nil, err
	}
	return &Investment{
		UsuarioID:               *usuarioID,
		ProyectoID:              *proyectoID,
		MontoInvertido:          monto,
		PorcentajeParticipacion: porcentaje,
	}, nil
}

// investmentRefsExist checks both legs. The user lives in the auth schema,
// so it is counted by table name instead of a model.
func investmentRefsExist(tx *gorm.DB, inv *Investment) error {
	var count int64
	if err := tx.Table("app_auth.usuarios").Where("id = ?", inv.UsuarioID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errf(KindInvalidReference, "usuario_id", "referenced row %d does not exist", inv.UsuarioID)
	}
	return refExists(tx, &Project{}, inv.ProyectoID, "proyecto_id")
}

func (s *Store) ListInvestments(ctx context.Context) ([]InvestmentView, error) {
	var views []InvestmentView
	if err := s.db.WithContext(ctx).Raw(investmentViewQuery).Scan(&views).Error; err != nil {
		return nil, translate(err, false)
	}
	return views, nil
}

func (s *Store) CreateInvestment(ctx context.Context, in InvestmentInput) (*Investment, error) {
	investment, err := s.parseInvestment(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := investmentRefsExist(tx, investment); err != nil {
			return err
		}
		return tx.Create(investment).Error
	})
	if err != nil {
		return nil, err
	}
	return investment, nil
}

func (s *Store) UpdateInvestment(ctx context.Context, id int64, in InvestmentInput) (*Investment, error) {
	parsed, err := s.parseInvestment(in)
	if err != nil {
		return nil, err
	}
	var investment Investment
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&investment, "id = ?", id).Error; err != nil {
			return err
		}
		if err := investmentRefsExist(tx, parsed); err != nil {
			return err
		}
		return tx.Model(&investment).Updates(map[string]any{
			"usuario_id":               parsed.UsuarioID,
			"proyecto_id":              parsed.ProyectoID,
			"monto_invertido":          parsed.MontoInvertido,
			"porcentaje_participacion": parsed.PorcentajeParticipacion,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &investment, nil
}

func (s *Store) DeleteInvestment(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var investment Investment
		if err := tx.First(&investment, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&investment).Error
	})
}

// ---- empleados ----

type EmployeeInput struct {
	Nombre            string `json:"nombre"`
	Identificacion    string `json:"identificacion"`
	Cargo             string `json:"cargo"`
	Salario           any    `json:"salario"`
	FechaContratacion string `json:"fecha_contratacion"`
}

func (s *Store) parseEmployee(in EmployeeInput) (*Employee, error) {
	if in.Nombre == "" {
		return nil, errf(KindInvalidInput, "nombre", "nombre is required")
	}
	if in.Identificacion == "" {
		return nil, errf(KindInvalidInput, "identificacion", "identificacion is required")
	}
	salario, err := money.ParseAmount(in.Salario)
	if err != nil {
		return nil, errf(KindInvalidAmount, "salario", "%v", err)
	}
	fecha, err := parseDate("fecha_contratacion", in.FechaContratacion, true)
	if err != nil {
		return nil, err
	}
	return &Employee{
		Nombre:            in.Nombre,
		Identificacion:    in.Identificacion,
		Cargo:             in.Cargo,
		Salario:           salario,
		FechaContratacion: fecha,
	}, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	if err := s.db.WithContext(ctx).Order("id").Find(&employees).Error; err != nil {
		return nil, translate(err, false)
	}
	return employees, nil
}

func (s *Store) CreateEmployee(ctx context.Context, in EmployeeInput) (*Employee, error) {
	employee, err := s.parseEmployee(in)
	if err != nil {
		return nil, err
	}
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		return tx.Create(employee).Error
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (*Employee, error) {
	parsed, err := s.parseEmployee(in)
	if err != nil {
		return nil, err
	}
	var employee Employee
	err = s.write(ctx, false, func(tx *gorm.DB) error {
		if err := tx.First(&employee, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&employee).Updates(map[string]any{
			"nombre":             parsed.Nombre,
			"identificacion":     parsed.Identificacion,
			"cargo":              parsed.Cargo,
			"salario":            parsed.Salario,
			"fecha_contratacion": parsed.FechaContratacion,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	return s.write(ctx, true, func(tx *gorm.DB) error {
		var employee Employee
		if err := tx.First(&employee, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&employee).Error
	})
}
