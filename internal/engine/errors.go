package engine

import (
	"fmt"
	"time"
)

// RuleNotFoundError signals that no rule row satisfies the lookup predicate.
// It is a hard error for the specific lookup; callers must never default the
// rate to zero.
type RuleNotFoundError struct {
	RuleCode      string
	TaxType       string
	ReferenceDate time.Time
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("no active tax rule for code '%s' (%s) on %s",
		e.RuleCode, e.TaxType, e.ReferenceDate.Format("2006-01-02"))
}

// InvalidAmountError rejects non-positive or unparsable monetary values
// before any calculation happens.
type InvalidAmountError struct {
	Field string
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount for %s: '%s'", e.Field, e.Value)
}

// ReconciliationParseError aborts a reconciliation run on malformed
// receivables input. No partial result is persisted.
type ReconciliationParseError struct {
	Line   int
	Reason string
}

func (e *ReconciliationParseError) Error() string {
	return fmt.Sprintf("malformed receivables input at line %d: %s", e.Line, e.Reason)
}
