package pipeline

import (
	"sort"

	"finboard/internal/core"
)

const (
	StatusNetPositive = "net positive"
	StatusNetNegative = "net negative"
)

// Summarize totals income and expenses of list.
func Summarize(list []core.Transaction) core.Summary {
	var s core.Summary
	for _, t := range list {
		switch t.Kind {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	s.Status = StatusNetPositive
	if s.Balance.IsNegative() {
		s.Status = StatusNetNegative
	}
	return s
}

// Net returns the signed sum of list (income positive, expense negative).
func Net(list []core.Transaction) core.Money {
	var cents int64
	for _, t := range list {
		cents += t.SignedCents()
	}
	return core.Money{Cents: cents}
}

// AggregateByCategory sums amounts per category in first-seen order. Callers
// pass expense transactions, see Expenses.
func AggregateByCategory(list []core.Transaction) []core.CategoryAmount {
	index := make(map[string]int)
	var out []core.CategoryAmount
	for _, t := range list {
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, core.CategoryAmount{Name: t.Category})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

// SpendOf returns the amount for category, or zero when absent.
func SpendOf(spend []core.CategoryAmount, category string) core.Money {
	for _, c := range spend {
		if c.Name == category {
			return c.Amount
		}
	}
	return core.Money{}
}

// GroupByMonthNet sums the signed amounts per YYYY-MM, sorted ascending.
// Transactions without a valid date are skipped.
func GroupByMonthNet(list []core.Transaction) []core.MonthNet {
	nets := make(map[string]int64)
	for _, t := range list {
		if t.Date.IsEmpty() {
			continue
		}
		nets[t.Date.MonthKey()] += t.SignedCents()
	}
	out := make([]core.MonthNet, 0, len(nets))
	for month, cents := range nets {
		out = append(out, core.MonthNet{Month: month, Net: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
