package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ContaSync/CS-Backend/internal/money"
)

// Kind classifies a ledger failure. The HTTP layer maps kinds to status
// codes; inside the store a kind is never downgraded or swallowed.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindInvalidAmount       Kind = "invalid_amount"
	KindInvalidReference    Kind = "invalid_reference"
	KindDuplicateKey        Kind = "duplicate_key"
	KindReferentialConflict Kind = "referential_conflict"
	KindNotFound            Kind = "not_found"
	KindBusy                Kind = "busy"
	KindResourceExhausted   Kind = "resource_exhausted"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func errf(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error produced by this package.
func KindOf(err error) (Kind, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

func isKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// uniqueFields maps the columns carrying uniqueness constraints to the field
// name reported to the caller. Constraint names generated by AutoMigrate
// embed the column name, so a suffix match is enough.
var uniqueFields = []string{
	"numero_recibo",
	"numero_cuenta",
	"identificacion",
	"nombre",
	"email",
}

func fieldFromConstraint(constraint string) string {
	for _, f := range uniqueFields {
		if strings.Contains(constraint, f) {
			return f
		}
	}
	return ""
}

// Postgres SQLSTATE classes the store reacts to. The original backend keyed
// its responses off 23505 and 23503 the same way.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
	pgLockNotAvailable    = "55P03"
	pgTooManyConnections  = "53300"
	pgInsufficientRes     = "53000"
)

// translate converts driver and ORM errors into the taxonomy. onDelete
// switches the meaning of a foreign-key violation: on a write the referenced
// row is missing, on a delete the row is still referenced elsewhere.
func translate(err error, onDelete bool) error {
	if err == nil {
		return nil
	}

	var le *Error
	if errors.As(err, &le) {
		return le
	}

	if errors.Is(err, money.ErrInvalidAmount) {
		return &Error{Kind: KindInvalidAmount, Message: err.Error()}
	}
	if errors.Is(err, money.ErrInvalidReference) {
		return &Error{Kind: KindInvalidReference, Message: err.Error()}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: KindNotFound, Message: "record not found"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindBusy, Message: "transaction timed out; retry"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &Error{
				Kind:    KindDuplicateKey,
				Field:   fieldFromConstraint(pgErr.ConstraintName),
				Message: "value already exists",
			}
		case pgForeignKeyViolation:
			if onDelete {
				return &Error{Kind: KindReferentialConflict, Message: "row is still referenced"}
			}
			return &Error{Kind: KindInvalidReference, Message: "referenced row does not exist"}
		case pgSerializationFail, pgDeadlockDetected, pgLockNotAvailable:
			return &Error{Kind: KindBusy, Message: "conflicting concurrent transaction; retry"}
		case pgTooManyConnections, pgInsufficientRes:
			return &Error{Kind: KindResourceExhausted, Message: "connection pool exhausted"}
		}
	}

	return err
}
