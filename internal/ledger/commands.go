package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"
	"finboard/internal/transfer"
)

// Command is a state change understood by Store.Apply.
type Command interface {
	// Name labels the command in logs and metrics.
	Name() string
}

// Input carries the user-editable fields of a transaction.
type Input struct {
	Description string
	Amount      core.Money
	Kind        core.Kind
	Category    string
	Date        core.Date
}

// Transaction builds a transaction with the given ID from the input, trimming
// text fields.
func (in Input) Transaction(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Kind:        in.Kind,
		Category:    strings.TrimSpace(in.Category),
		Date:        in.Date,
	}
}

// ImportOptions tunes ImportFile.
type ImportOptions struct {
	// Replace swaps the transaction list for the file's instead of appending.
	// Only JSON documents honour it.
	Replace bool
}

type (
	AddTransaction struct {
		Input Input
	}

	EditTransaction struct {
		ID    string
		Input Input
	}

	// DeleteTransactions removes one or many transactions by ID.
	DeleteTransactions struct {
		IDs []string
	}

	ImportFile struct {
		Format  transfer.Format
		Data    []byte
		Options ImportOptions
	}

	// SetBudgets merges limits into the budget map.
	SetBudgets struct {
		Budgets core.BudgetMap
	}

	SetTheme struct {
		Theme core.Theme
	}

	ToggleTheme struct{}

	// ResetLedger clears the store and restores defaults.
	ResetLedger struct{}

	// SeedDemo fills an empty ledger with sample transactions dated
	// relative to Now.
	SeedDemo struct {
		Now time.Time
	}
)

func (AddTransaction) Name() string     { return "add_transaction" }
func (EditTransaction) Name() string    { return "edit_transaction" }
func (DeleteTransactions) Name() string { return "delete_transactions" }
func (ImportFile) Name() string         { return "import_file" }
func (SetBudgets) Name() string         { return "set_budgets" }
func (SetTheme) Name() string           { return "set_theme" }
func (ToggleTheme) Name() string        { return "toggle_theme" }
func (ResetLedger) Name() string        { return "reset_ledger" }
func (SeedDemo) Name() string           { return "seed_demo" }

// Outcome reports what a successful command did.
type Outcome struct {
	Revision uint64
	// Affected counts the transactions added, edited or removed.
	Affected int
	// ID is set when a single transaction was created.
	ID string
}

// mutate applies cmd to next. It returns the keys to persist, or the
// sentinel reset when the whole store must be cleared.
func mutate(next *state, cmd Command) ([]string, int, string, error) {
	switch c := cmd.(type) {
	case AddTransaction:
		t := c.Input.Transaction(uuid.NewString())
		if err := t.Validate(); err != nil {
			return nil, 0, "", err
		}
		next.transactions = append(next.transactions, t)
		return []string{keyTransactions}, 1, t.ID, nil

	case EditTransaction:
		idx := next.indexOf(c.ID)
		if idx < 0 {
			return nil, 0, "", fmt.Errorf("%w: %s", ErrNotFound, c.ID)
		}
		t := c.Input.Transaction(c.ID)
		if err := t.Validate(); err != nil {
			return nil, 0, "", err
		}
		next.transactions[idx] = t
		return []string{keyTransactions}, 1, "", nil

	case DeleteTransactions:
		if len(c.IDs) == 0 {
			return nil, 0, "", nil
		}
		drop := make(map[string]struct{}, len(c.IDs))
		for _, id := range c.IDs {
			drop[id] = struct{}{}
		}
		kept := next.transactions[:0]
		for _, t := range next.transactions {
			if _, ok := drop[t.ID]; !ok {
				kept = append(kept, t)
			}
		}
		removed := len(next.transactions) - len(kept)
		if removed == 0 {
			return nil, 0, "", fmt.Errorf("%w: %s", ErrNotFound, strings.Join(c.IDs, ","))
		}
		next.transactions = kept
		return []string{keyTransactions}, removed, "", nil

	case ImportFile:
		return importFile(next, c)

	case SetBudgets:
		if err := c.Budgets.Validate(); err != nil {
			return nil, 0, "", err
		}
		for cat, limit := range c.Budgets {
			next.budgets[strings.TrimSpace(cat)] = limit
		}
		return []string{keyBudgets}, 0, "", nil

	case SetTheme:
		if err := c.Theme.Validate(); err != nil {
			return nil, 0, "", err
		}
		next.theme = c.Theme
		return []string{keyTheme}, 0, "", nil

	case ToggleTheme:
		next.theme = next.theme.Toggle()
		return []string{keyTheme}, 0, "", nil

	case ResetLedger:
		removed := len(next.transactions)
		*next = defaultState()
		return []string{keyReset}, removed, "", nil

	case SeedDemo:
		if len(next.transactions) > 0 {
			return nil, 0, "", nil
		}
		next.transactions = DemoTransactions(c.Now)
		return []string{keyTransactions}, len(next.transactions), "", nil

	default:
		return nil, 0, "", fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func importFile(next *state, c ImportFile) ([]string, int, string, error) {
	switch c.Format {
	case transfer.FormatCSV:
		parsed, err := transfer.ParseCSV(string(c.Data))
		if err != nil {
			return nil, 0, "", err
		}
		next.transactions = transfer.Merge(next.transactions, parsed)
		return []string{keyTransactions}, len(parsed), "", nil

	case transfer.FormatJSON:
		doc, err := transfer.DecodeExport(c.Data)
		if err != nil {
			return nil, 0, "", err
		}
		var keys []string
		if doc.Transactions != nil {
			if c.Options.Replace {
				next.transactions = transfer.Merge(nil, doc.Transactions)
			} else {
				next.transactions = transfer.Merge(next.transactions, doc.Transactions)
			}
			keys = append(keys, keyTransactions)
		}
		if doc.Budgets != nil {
			next.budgets = doc.Budgets.Clone()
			keys = append(keys, keyBudgets)
		}
		return keys, len(doc.Transactions), "", nil

	default:
		return nil, 0, "", fmt.Errorf("%w: unknown format %q", transfer.ErrInvalidImport, c.Format)
	}
}
