package ledger

import (
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"
)

type demoEntry struct {
	desc     string
	units    int64
	kind     core.Kind
	category string
	daysAgo  int
}

var demoEntries = []demoEntry{
	{"Salary", 4500, core.Income, "Salary", 25},
	{"Transport (UCC–Adenta)", 120, core.Expense, "Transport", 20},
	{"Food", 230, core.Expense, "Food", 19},
	{"Side business profit", 800, core.Income, "Business", 15},
	{"Internet bill", 150, core.Expense, "Utilities", 12},
	{"Rent", 1200, core.Expense, "Rent", 10},
	{"Savings deposit", 500, core.Expense, "Savings", 8},
	{"Food", 160, core.Expense, "Food", 5},
}

// DemoTransactions returns the sample ledger shown to first-time users,
// dated relative to now.
func DemoTransactions(now time.Time) []core.Transaction {
	today := core.DateOf(now)
	out := make([]core.Transaction, 0, len(demoEntries))
	for _, e := range demoEntries {
		out = append(out, core.Transaction{
			ID:          uuid.NewString(),
			Description: e.desc,
			Amount:      core.FromUnits(e.units),
			Kind:        e.kind,
			Category:    e.category,
			Date:        core.Date{Time: today.AddDate(0, 0, -e.daysAgo)},
		})
	}
	return out
}
