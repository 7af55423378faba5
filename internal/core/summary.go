package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"category"`
	Amount Money  `json:"amount"`
}

// MonthNet is the income minus expenses of one YYYY-MM bucket.
type MonthNet struct {
	Month string `json:"month"`
	Net   Money  `json:"net"`
}

// Summary holds the totals of a transaction list.
type Summary struct {
	Income   Money  `json:"totalIncome"`
	Expenses Money  `json:"totalExpenses"`
	Balance  Money  `json:"balance"`
	Status   string `json:"status"`
}

// BudgetUsage is the spend of one budgeted category against its limit.
type BudgetUsage struct {
	Category string `json:"category"`
	Used     Money  `json:"used"`
	Limit    Money  `json:"limit"`
	Percent  int    `json:"percent"`
	Tier     Tier   `json:"tier"`
}

// Tier is the display band of a budget percentage.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)
