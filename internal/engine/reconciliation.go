package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Reconciliation exception kinds
const (
	ExceptionMissingReceivable = "MISSING_RECEIVABLE"
	ExceptionMissingInvoice    = "MISSING_INVOICE"
	ExceptionUnderpayment      = "UNDERPAYMENT"
	ExceptionOverpayment       = "OVERPAYMENT"
)

// Receivable is one already-parsed ledger entry keyed by invoice number.
type Receivable struct {
	Expected     decimal.Decimal
	Received     decimal.Decimal
	ReceivedDate string
}

// ReconException carries enough data (amounts, diff) to be actioned without
// re-querying the source ledgers. Absent amounts stay nil.
type ReconException struct {
	InvoiceNumber  string
	Kind           string
	Message        string
	InvoiceAmount  *decimal.Decimal
	ReceivedAmount *decimal.Decimal
	Diff           *decimal.Decimal
}

// ReconResult summarizes one reconciliation run.
type ReconResult struct {
	TotalRecords int
	Matched      int
	Exceptions   []ReconException
}

// Reconcile matches an external receivables ledger against known invoices.
// It walks the union of invoice numbers in sorted order so output is
// deterministic: invoice-only keys become MISSING_RECEIVABLE, receivable-only
// keys MISSING_INVOICE; when both sides exist, diff = received - invoice
// amount is matched within tolerance or classified as UNDER-/OVERPAYMENT.
func Reconcile(invoices map[string]decimal.Decimal, receivables map[string]Receivable, tolerance decimal.Decimal) ReconResult {
	keys := make([]string, 0, len(invoices)+len(receivables))
	seen := make(map[string]bool, len(invoices)+len(receivables))
	for k := range invoices {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range receivables {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	result := ReconResult{TotalRecords: len(keys)}
	for _, num := range keys {
		invAmt, hasInv := invoices[num]
		recv, hasRecv := receivables[num]

		switch {
		case hasInv && !hasRecv:
			amt := invAmt
			result.Exceptions = append(result.Exceptions, ReconException{
				InvoiceNumber: num,
				Kind:          ExceptionMissingReceivable,
				Message:       "invoice " + num + " has no matching receivable",
				InvoiceAmount: &amt,
			})

		case hasRecv && !hasInv:
			amt := recv.Received
			result.Exceptions = append(result.Exceptions, ReconException{
				InvoiceNumber:  num,
				Kind:           ExceptionMissingInvoice,
				Message:        "receivable " + num + " has no matching invoice",
				ReceivedAmount: &amt,
			})

		default:
			diff := recv.Received.Sub(invAmt)
			if diff.Abs().LessThanOrEqual(tolerance) {
				result.Matched++
				continue
			}
			kind := ExceptionOverpayment
			msg := "received " + recv.Received.String() + " > invoice " + invAmt.String()
			if diff.Sign() < 0 {
				kind = ExceptionUnderpayment
				msg = "received " + recv.Received.String() + " < invoice " + invAmt.String()
			}
			inv, rec, d := invAmt, recv.Received, diff
			result.Exceptions = append(result.Exceptions, ReconException{
				InvoiceNumber:  num,
				Kind:           kind,
				Message:        msg + " (diff: " + diff.String() + ")",
				InvoiceAmount:  &inv,
				ReceivedAmount: &rec,
				Diff:           &d,
			})
		}
	}
	return result
}
