package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finboard/internal/core"
)

// Suggested names of downloaded exports.
const (
	ExportFileName    = "finance-export.json"
	ExportCSVFileName = "finance-export.csv"
)

// Document is the JSON export file.
type Document struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      core.BudgetMap     `json:"budgets"`
	ExportedAt   time.Time          `json:"exportedAt"`
}

// NewDocument snapshots a ledger for export.
func NewDocument(list []core.Transaction, budgets core.BudgetMap, now time.Time) Document {
	if list == nil {
		list = []core.Transaction{}
	}
	if budgets == nil {
		budgets = core.BudgetMap{}
	}
	return Document{
		Transactions: list,
		Budgets:      budgets,
		ExportedAt:   now.UTC(),
	}
}

// ToJSON encodes the document with indentation.
func (d Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Imported is a decoded export file. Nil fields were absent from the file.
type Imported struct {
	Transactions []core.Transaction
	Budgets      core.BudgetMap
}

// DecodeExport parses an export document. Absent or mistyped top-level
// fields are ignored; an unparsable file or an invalid transaction fails.
// A missing or malformed date alone does not fail: the row is kept undated,
// the way Load keeps it, so an export of such a ledger imports back.
func DecodeExport(data []byte) (Imported, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Imported{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	var out Imported
	if msg, ok := raw["transactions"]; ok && isArray(msg) {
		if err := json.Unmarshal(msg, &out.Transactions); err != nil {
			return Imported{}, fmt.Errorf("%w: transactions: %v", ErrInvalidImport, err)
		}
		if out.Transactions == nil {
			out.Transactions = []core.Transaction{}
		}
		for i, t := range out.Transactions {
			if err := validateImported(t); err != nil {
				return Imported{}, fmt.Errorf("%w: transaction %d: %v", ErrInvalidImport, i, err)
			}
		}
	}
	if msg, ok := raw["budgets"]; ok && isObject(msg) {
		if err := json.Unmarshal(msg, &out.Budgets); err != nil {
			return Imported{}, fmt.Errorf("%w: budgets: %v", ErrInvalidImport, err)
		}
		if err := out.Budgets.Validate(); err != nil {
			return Imported{}, fmt.Errorf("%w: budgets: %v", ErrInvalidImport, err)
		}
	}
	return out, nil
}

func validateImported(t core.Transaction) error {
	err := t.Validate()
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for _, f := range verr.Fields {
		if !errors.Is(f.Err, core.ErrInvalidDate) {
			return err
		}
	}
	return nil
}

func isArray(msg json.RawMessage) bool {
	return firstByte(msg) == '['
}

func isObject(msg json.RawMessage) bool {
	return firstByte(msg) == '{'
}

func firstByte(msg json.RawMessage) byte {
	for _, c := range msg {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c
		}
	}
	return 0
}
