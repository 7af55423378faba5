// Package transfer reads and writes ledger files: the CSV import format and
// the JSON export document.
package transfer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"finboard/internal/core"
)

// ErrInvalidImport is returned for any file that cannot be imported.
var ErrInvalidImport = errors.New("import failed: file is not valid JSON or CSV")

// Format identifies an import file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// csvColumns is the fixed column order of the import format.
var csvColumns = []string{"description", "amount", "kind", "category", "date"}

// ParseFormat maps a format name or file name onto a Format.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "csv" || strings.HasSuffix(s, ".csv"):
		return FormatCSV, nil
	case s == "json" || strings.HasSuffix(s, ".json"):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidImport, s)
	}
}

// ParseCSV reads description,amount,kind,category,date lines. The first line
// is a header and is skipped. Fields are split on plain commas, no quoting.
// Rows with fewer than five fields are dropped; a row with an invalid value
// fails the whole file. Every parsed row gets a fresh ID.
func ParseCSV(text string) ([]core.Transaction, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var out []core.Transaction
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < len(csvColumns) {
			continue
		}
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}

		t, err := csvRow(parts)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidImport, i+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func csvRow(parts []string) (core.Transaction, error) {
	amount, err := core.ParseAmount(parts[1])
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(parts[4])
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID:          uuid.NewString(),
		Description: parts[0],
		Amount:      amount,
		Kind:        core.Kind(parts[2]),
		Category:    parts[3],
		Date:        date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// WriteCSV renders transactions in the import format, header included.
func WriteCSV(list []core.Transaction) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvColumns, ","))
	b.WriteByte('\n')
	for _, t := range list {
		b.WriteString(strings.Join([]string{
			strings.ReplaceAll(t.Description, ",", " "),
			t.Amount.String(),
			string(t.Kind),
			strings.ReplaceAll(t.Category, ",", " "),
			t.Date.String(),
		}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
