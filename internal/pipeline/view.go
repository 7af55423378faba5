package pipeline

import "finboard/internal/core"

// View is everything a presentation layer needs to render the dashboard.
type View struct {
	Filter       FilterSpec            `json:"filter"`
	Transactions []core.Transaction    `json:"transactions"`
	Count        int                   `json:"count"`
	Net          core.Money            `json:"net"`
	Summary      core.Summary          `json:"summary"`
	Categories   []core.CategoryAmount `json:"categories"`
	Monthly      []core.MonthNet       `json:"monthly"`
	Budgets      []core.BudgetUsage    `json:"budgets"`
	Theme        core.Theme            `json:"theme"`
}

// BuildView filters list with spec and derives every aggregate from the
// filtered result.
func BuildView(list []core.Transaction, budgets core.BudgetMap, theme core.Theme, spec FilterSpec) View {
	filtered := ApplyFilters(list, spec)
	spend := AggregateByCategory(Expenses(filtered))

	v := View{
		Filter:       spec,
		Transactions: SortByDateDesc(filtered),
		Count:        len(filtered),
		Net:          Net(filtered),
		Summary:      Summarize(filtered),
		Categories:   spend,
		Monthly:      GroupByMonthNet(filtered),
		Budgets:      BudgetUsage(spend, budgets),
		Theme:        theme,
	}
	if v.Categories == nil {
		v.Categories = []core.CategoryAmount{}
	}
	return v
}
