package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ContaSync/CS-Backend/internal/money"
)

func TestTranslateUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uni_recibos_numero_recibo"}

	err := translate(pgErr, false)

	kind, ok := KindOf(err)
	if !ok || kind != KindDuplicateKey {
		t.Fatalf("expected duplicate_key, got %v", err)
	}
	var le *Error
	errors.As(err, &le)
	if le.Field != "numero_recibo" {
		t.Errorf("expected field numero_recibo, got %q", le.Field)
	}
}

func TestTranslateForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "fk_gastos_presupuesto"}

	if kind, _ := KindOf(translate(pgErr, false)); kind != KindInvalidReference {
		t.Errorf("on write expected invalid_reference, got %v", kind)
	}
	if kind, _ := KindOf(translate(pgErr, true)); kind != KindReferentialConflict {
		t.Errorf("on delete expected referential_conflict, got %v", kind)
	}
}

func TestTranslateBusyCodes(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		err := translate(&pgconn.PgError{Code: code}, false)
		if kind, _ := KindOf(err); kind != KindBusy {
			t.Errorf("code %s: expected busy, got %v", code, err)
		}
	}
}

func TestTranslateResourceExhausted(t *testing.T) {
	for _, code := range []string{"53300", "53000"} {
		err := translate(&pgconn.PgError{Code: code}, false)
		if kind, _ := KindOf(err); kind != KindResourceExhausted {
			t.Errorf("code %s: expected resource_exhausted, got %v", code, err)
		}
	}
}

func TestTranslateWrappedSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("valor_recibido: %w", money.ErrInvalidAmount), KindInvalidAmount},
		{fmt.Errorf("cuenta_id: %w", money.ErrInvalidReference), KindInvalidReference},
		{gorm.ErrRecordNotFound, KindNotFound},
		{context.DeadlineExceeded, KindBusy},
	}
	for _, c := range cases {
		if kind, _ := KindOf(translate(c.err, false)); kind != c.want {
			t.Errorf("translate(%v): expected %s, got %s", c.err, c.want, kind)
		}
	}
}

func TestTranslatePreservesExistingKind(t *testing.T) {
	orig := errf(KindInvalidAmount, "monto", "monto must be a non-negative integer")

	err := translate(fmt.Errorf("create expense: %w", orig), true)

	var le *Error
	if !errors.As(err, &le) || le.Kind != KindInvalidAmount || le.Field != "monto" {
		t.Fatalf("expected original error preserved, got %v", err)
	}
}

func TestTranslatePassThrough(t *testing.T) {
	plain := errors.New("connection reset")
	if got := translate(plain, false); got != plain {
		t.Errorf("unclassified errors should pass through, got %v", got)
	}
	if translate(nil, false) != nil {
		t.Error("nil should stay nil")
	}
}

func TestFieldFromConstraint(t *testing.T) {
	cases := map[string]string{
		"uni_cuentas_numero_cuenta":     "numero_cuenta",
		"idx_clientes_identificacion":   "identificacion",
		"uni_usuarios_email":            "email",
		"recibos_pkey":                  "",
		"fk_presupuestos_centro_costos": "",
	}
	for constraint, want := range cases {
		if got := fieldFromConstraint(constraint); got != want {
			t.Errorf("fieldFromConstraint(%q) = %q, want %q", constraint, got, want)
		}
	}
}
