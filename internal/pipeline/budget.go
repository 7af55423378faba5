package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// Thresholds of the budget display bands, in percent.
const (
	WarningPercent  = 70
	CriticalPercent = 90
)

var hundred = decimal.NewFromInt(100)

// Percent returns used/limit as a whole percentage clamped to [0, 100].
// A limit of zero or less yields 0.
func Percent(used, limit core.Money) int {
	if limit.Cents <= 0 {
		return 0
	}
	pct := used.Decimal().Mul(hundred).Div(limit.Decimal()).Round(0).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return int(pct)
	}
}

// TierFor maps a percentage onto its display band.
func TierFor(percent int) core.Tier {
	switch {
	case percent >= CriticalPercent:
		return core.TierCritical
	case percent >= WarningPercent:
		return core.TierWarning
	default:
		return core.TierNormal
	}
}

// BudgetUsage computes one row per budgeted category, sorted by name.
// Spend on categories without a budget is not reported.
func BudgetUsage(spend []core.CategoryAmount, budgets core.BudgetMap) []core.BudgetUsage {
	cats := make([]string, 0, len(budgets))
	for cat := range budgets {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	out := make([]core.BudgetUsage, 0, len(cats))
	for _, cat := range cats {
		limit := budgets[cat]
		used := SpendOf(spend, cat)
		pct := Percent(used, limit)
		out = append(out, core.BudgetUsage{
			Category: cat,
			Used:     used,
			Limit:    limit,
			Percent:  pct,
			Tier:     TierFor(pct),
		})
	}
	return out
}
