// Package importer decodes external receivables ledgers before they reach
// the reconciliation matcher.
package importer

import (
	"encoding/csv"
	"io"
	"strings"

	"backend/internal/engine"

	"github.com/shopspring/decimal"
)

// Receivables input columns, semicolon-delimited:
// invoice_number;expected_amount;received_amount;received_date

// ParseReceivables decodes a semicolon-delimited receivables stream into a
// map keyed by invoice number. Malformed input aborts the whole run with a
// *engine.ReconciliationParseError; there is no partial result.
func ParseReceivables(r io.Reader) (map[string]engine.Receivable, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return map[string]engine.Receivable{}, nil
	}
	if err != nil {
		return nil, &engine.ReconciliationParseError{Line: 1, Reason: err.Error()}
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"invoice_number", "expected_amount", "received_amount"} {
		if _, ok := col[required]; !ok {
			return nil, &engine.ReconciliationParseError{Line: 1, Reason: "missing column '" + required + "'"}
		}
	}

	receivables := make(map[string]engine.Receivable)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &engine.ReconciliationParseError{Line: line, Reason: err.Error()}
		}

		invNum := strings.TrimSpace(record[col["invoice_number"]])
		if invNum == "" {
			continue
		}

		expected, err := parseField(record, col, "expected_amount")
		if err != nil {
			return nil, &engine.ReconciliationParseError{Line: line, Reason: err.Error()}
		}
		received, err := parseField(record, col, "received_amount")
		if err != nil {
			return nil, &engine.ReconciliationParseError{Line: line, Reason: err.Error()}
		}

		receivedDate := ""
		if i, ok := col["received_date"]; ok && i < len(record) {
			receivedDate = strings.TrimSpace(record[i])
		}

		receivables[invNum] = engine.Receivable{
			Expected:     expected,
			Received:     received,
			ReceivedDate: receivedDate,
		}
	}
	return receivables, nil
}

func parseField(record []string, col map[string]int, name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(record[col[name]])
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
