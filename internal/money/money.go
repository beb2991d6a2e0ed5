// Package money is the single place where monetary input is parsed and
// formatted. All amounts are stored as non-negative integers in minor
// currency units; grouped display strings ("1.234.567") exist only at the
// presentation edge.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidReference = errors.New("invalid reference")
)

var printer = message.NewPrinter(language.Spanish)

// ParseAmount normalizes a raw monetary value (JSON number, integer, or a
// human-formatted string like "$ 1.234.567") into minor currency units.
// Parsing is idempotent: feeding a canonical value back in returns it
// unchanged. Negative or non-numeric input fails with ErrInvalidAmount.
func ParseAmount(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: value is missing", ErrInvalidAmount)
	case int:
		return checkNonNegative(int64(n))
	case int64:
		return checkNonNegative(n)
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %v is not a whole number of minor units", ErrInvalidAmount, n)
		}
		return checkNonNegative(int64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, n.String())
		}
		return checkNonNegative(i)
	case string:
		return parseAmountString(n)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func parseAmountString(s string) (int64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty amount %q", ErrInvalidAmount, s)
	}
	if strings.HasPrefix(cleaned, "-") {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return n, nil
}

func checkNonNegative(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidAmount, n)
	}
	return n, nil
}

// ParseRef normalizes a raw foreign-key candidate into an id or nil.
// nil and "" mean "no reference"; anything else must be a positive integer.
// A malformed id is an error, never a silent zero.
func ParseRef(v any) (*int64, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		return checkRef(int64(n))
	case int64:
		return checkRef(n)
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%w: %v is not an integer id", ErrInvalidReference, n)
		}
		return checkRef(int64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidReference, n.String())
		}
		return checkRef(i)
	case string:
		if strings.TrimSpace(n) == "" {
			return nil, nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidReference, n)
		}
		return checkRef(i)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidReference, v)
	}
}

func checkRef(id int64) (*int64, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id %d is not positive", ErrInvalidReference, id)
	}
	return &id, nil
}

// Format renders minor units with dot-grouped thousands, the way every screen
// in the frontend displays money.
func Format(minor int64) string {
	return printer.Sprintf("%d", minor)
}
