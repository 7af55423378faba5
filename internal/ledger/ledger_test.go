package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
	"finboard/internal/kv"
	"finboard/internal/kv/memory"
	"finboard/internal/transfer"
)

// flakyStore wraps a memory store and fails on demand.
type flakyStore struct {
	*memory.Store
	failGet bool
	failSet bool
	// failKey fails Set for this key only.
	failKey string
}

var errDisk = errors.New("disk unavailable")

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errDisk
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet || key == f.failKey {
		return errDisk
	}
	return f.Store.Set(ctx, key, value)
}

func lunch() Input {
	return Input{
		Description: "  Lunch ",
		Amount:      core.FromUnits(45),
		Kind:        core.Expense,
		Category:    "Food",
		Date:        core.NewDate(2024, 3, 1),
	}
}

func newLoaded(t *testing.T, store kv.Store) *Store {
	t.Helper()
	s := New(store, nil)
	s.Load(context.Background())
	return s
}

func TestLoad_Defaults(t *testing.T) {
	s := newLoaded(t, memory.New())
	snap := s.Snapshot()
	assert.Empty(t, snap.Transactions)
	assert.NotNil(t, snap.Transactions)
	assert.Equal(t, core.DefaultBudgets(), snap.Budgets)
	assert.Equal(t, core.ThemeDark, snap.Theme)
	assert.Equal(t, uint64(1), snap.Revision)
}

func TestLoad_CorruptAndFailingReads(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Set(ctx, kv.KeyTransactions, []byte("{broken")))
	require.NoError(t, mem.Set(ctx, kv.KeyBudgets, []byte(`{"Food": 50}`)))
	require.NoError(t, mem.Set(ctx, kv.KeyTheme, []byte(`"purple"`)))

	snap := newLoaded(t, mem).Snapshot()
	assert.Empty(t, snap.Transactions)
	assert.Equal(t, core.BudgetMap{"Food": core.FromUnits(50)}, snap.Budgets)
	assert.Equal(t, core.ThemeDark, snap.Theme)

	snap = newLoaded(t, &flakyStore{Store: mem, failGet: true}).Snapshot()
	assert.Equal(t, core.DefaultBudgets(), snap.Budgets)
}

func TestLoad_RepairsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Set(ctx, kv.KeyTransactions, []byte(`[
		{"id":"x","desc":"A","amount":1,"type":"expense","category":"Food","date":"2024-01-01"},
		{"id":"x","desc":"B","amount":2,"type":"income","category":"Salary","date":"not-a-date"}
	]`)))

	snap := newLoaded(t, mem).Snapshot()
	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, "x", snap.Transactions[0].ID)
	assert.NotEqual(t, "x", snap.Transactions[1].ID)
	assert.True(t, snap.Transactions[1].Date.IsEmpty())
}

func TestApply_AddTransaction(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := newLoaded(t, mem)

	out, err := s.Apply(ctx, AddTransaction{Input: lunch()})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, 1, out.Affected)
	assert.Equal(t, uint64(2), out.Revision)

	got, err := s.Find(out.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Description)

	raw, err := mem.Get(ctx, kv.KeyTransactions)
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "Lunch", stored[0]["desc"])
	assert.Equal(t, 45.0, stored[0]["amount"])
	assert.Equal(t, "expense", stored[0]["type"])
	assert.Equal(t, "2024-03-01", stored[0]["date"])
}

func TestApply_InvalidInputLeavesStateUnchanged(t *testing.T) {
	s := newLoaded(t, memory.New())
	in := lunch()
	in.Description = " "
	in.Amount = core.Money{}
	in.Kind = "transfer"

	_, err := s.Apply(context.Background(), AddTransaction{Input: in})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidTransaction)
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	assert.Empty(t, s.Snapshot().Transactions)
	assert.Equal(t, uint64(1), s.Revision())
}

func TestApply_EditTransaction(t *testing.T) {
	ctx := context.Background()
	s := newLoaded(t, memory.New())
	out, err := s.Apply(ctx, AddTransaction{Input: lunch()})
	require.NoError(t, err)

	edited := lunch()
	edited.Amount = core.FromUnits(50)
	_, err = s.Apply(ctx, EditTransaction{ID: out.ID, Input: edited})
	require.NoError(t, err)
	got, _ := s.Find(out.ID)
	assert.Equal(t, core.FromUnits(50), got.Amount)

	_, err = s.Apply(ctx, EditTransaction{ID: "missing", Input: edited})
	assert.ErrorIs(t, err, ErrNotFound)

	edited.Date = core.Date{}
	_, err = s.Apply(ctx, EditTransaction{ID: out.ID, Input: edited})
	assert.ErrorIs(t, err, core.ErrInvalidDate)
	got, _ = s.Find(out.ID)
	assert.Equal(t, core.NewDate(2024, 3, 1), got.Date)
}

func TestApply_DeleteTransactions(t *testing.T) {
	ctx := context.Background()
	s := newLoaded(t, memory.New())
	var ids []string
	for i := 0; i < 3; i++ {
		out, err := s.Apply(ctx, AddTransaction{Input: lunch()})
		require.NoError(t, err)
		ids = append(ids, out.ID)
	}

	out, err := s.Apply(ctx, DeleteTransactions{IDs: []string{ids[0], ids[2], "unknown"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Affected)
	snap := s.Snapshot()
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, ids[1], snap.Transactions[0].ID)

	_, err = s.Apply(ctx, DeleteTransactions{IDs: []string{"unknown"}})
	assert.ErrorIs(t, err, ErrNotFound)

	rev := s.Revision()
	_, err = s.Apply(ctx, DeleteTransactions{})
	require.NoError(t, err)
	assert.Equal(t, rev, s.Revision())
}

func TestApply_ImportCSV(t *testing.T) {
	ctx := context.Background()
	s := newLoaded(t, memory.New())

	out, err := s.Apply(ctx, ImportFile{
		Format: transfer.FormatCSV,
		Data:   []byte("description,amount,kind,category,date\nLunch,45,expense,Food,2024-03-01\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Affected)

	snap := s.Snapshot()
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, core.FromUnits(45), snap.Transactions[0].Amount)

	_, err = s.Apply(ctx, ImportFile{Format: transfer.FormatCSV, Data: []byte("h\nTea,x,expense,Food,2024-01-01")})
	assert.ErrorIs(t, err, transfer.ErrInvalidImport)
	assert.Len(t, s.Snapshot().Transactions, 1)
}

func TestApply_ImportJSON(t *testing.T) {
	ctx := context.Background()
	s := newLoaded(t, memory.New())
	_, err := s.Apply(ctx, AddTransaction{Input: lunch()})
	require.NoError(t, err)

	doc := []byte(`{"transactions":[{"id":"a","desc":"Salary","amount":4500,"type":"income","category":"Salary","date":"2024-01-05"}],"budgets":{"Food":100}}`)

	_, err = s.Apply(ctx, ImportFile{Format: transfer.FormatJSON, Data: doc})
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Len(t, snap.Transactions, 2)
	assert.Equal(t, core.BudgetMap{"Food": core.FromUnits(100)}, snap.Budgets)

	_, err = s.Apply(ctx, ImportFile{Format: transfer.FormatJSON, Data: doc, Options: ImportOptions{Replace: true}})
	require.NoError(t, err)
	snap = s.Snapshot()
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "a", snap.Transactions[0].ID)

	_, err = s.Apply(ctx, ImportFile{Format: transfer.FormatJSON, Data: []byte("nope")})
	assert.ErrorIs(t, err, transfer.ErrInvalidImport)

	_, err = s.Apply(ctx, ImportFile{Format: "xlsx", Data: doc})
	assert.ErrorIs(t, err, transfer.ErrInvalidImport)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newLoaded(t, memory.New())
	_, err := src.Apply(ctx, SeedDemo{Now: time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = src.Apply(ctx, SetBudgets{Budgets: core.BudgetMap{"Travel": core.FromUnits(250)}})
	require.NoError(t, err)

	data, err := src.Export(time.Now()).ToJSON()
	require.NoError(t, err)

	dst := newLoaded(t, memory.New())
	_, err = dst.Apply(ctx, ImportFile{Format: transfer.FormatJSON, Data: data})
	require.NoError(t, err)

	assert.Equal(t, src.Snapshot().Transactions, dst.Snapshot().Transactions)
	assert.Equal(t, src.Snapshot().Budgets, dst.Snapshot().Budgets)
}

func TestApply_SetBudgets(t *testing.T) {
	ctx := context.Background()
	s := newLoaded(t, memory.New())

	_, err := s.Apply(ctx, SetBudgets{Budgets: core.BudgetMap{"Food": core.FromUnits(900), "Gym": core.FromUnits(40)}})
	require.NoError(t, err)
	b := s.Snapshot().Budgets
	assert.Equal(t, core.FromUnits(900), b["Food"])
	assert.Equal(t, core.FromUnits(40), b["Gym"])
	assert.Equal(t, core.FromUnits(1500), b["Rent"])

	_, err = s.Apply(ctx, SetBudgets{Budgets: core.BudgetMap{"Food": {Cents: -1}}})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, core.FromUnits(900), s.Snapshot().Budgets["Food"])
}

func TestApply_Theme(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := newLoaded(t, mem)

	_, err := s.Apply(ctx, ToggleTheme{})
	require.NoError(t, err)
	assert.Equal(t, core.ThemeLight, s.Snapshot().Theme)

	_, err = s.Apply(ctx, SetTheme{Theme: core.ThemeDark})
	require.NoError(t, err)
	raw, _ := mem.Get(ctx, kv.KeyTheme)
	assert.JSONEq(t, `"dark"`, string(raw))

	_, err = s.Apply(ctx, SetTheme{Theme: "blue"})
	assert.ErrorIs(t, err, core.ErrInvalidTheme)
}

func TestApply_WriteFailureLeavesStateUnchanged(t *testing.T) {
	store := &flakyStore{Store: memory.New()}
	s := newLoaded(t, store)
	store.failSet = true

	_, err := s.Apply(context.Background(), AddTransaction{Input: lunch()})
	assert.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), "persist transactions")
	assert.Empty(t, s.Snapshot().Transactions)
	assert.Equal(t, uint64(1), s.Revision())
}

func TestApply_ResetLedger(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := newLoaded(t, mem)
	_, err := s.Apply(ctx, AddTransaction{Input: lunch()})
	require.NoError(t, err)
	_, err = s.Apply(ctx, ToggleTheme{})
	require.NoError(t, err)

	out, err := s.Apply(ctx, ResetLedger{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Affected)
	assert.Empty(t, mem.Keys())

	snap := s.Snapshot()
	assert.Empty(t, snap.Transactions)
	assert.Equal(t, core.ThemeDark, snap.Theme)
	assert.Equal(t, core.DefaultBudgets(), snap.Budgets)
}

func TestApply_SeedDemo(t *testing.T) {
	ctx := context.Background()
	s := newLoaded(t, memory.New())
	now := time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)

	out, err := s.Apply(ctx, SeedDemo{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 8, out.Affected)

	snap := s.Snapshot()
	require.Len(t, snap.Transactions, 8)
	assert.Equal(t, core.NewDate(2024, 3, 6), snap.Transactions[0].Date)
	assert.Equal(t, core.NewDate(2024, 3, 26), snap.Transactions[7].Date)

	out, err = s.Apply(ctx, SeedDemo{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Affected)
	assert.Len(t, s.Snapshot().Transactions, 8)
}

type bogus struct{}

func (bogus) Name() string { return "bogus" }

func TestApply_UnknownCommand(t *testing.T) {
	_, err := newLoaded(t, memory.New()).Apply(context.Background(), bogus{})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := newLoaded(t, memory.New())
	_, err := s.Apply(ctx, AddTransaction{Input: lunch()})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Transactions[0].Description = "changed"
	snap.Budgets["Food"] = core.Money{}

	again := s.Snapshot()
	assert.Equal(t, "Lunch", again.Transactions[0].Description)
	assert.Equal(t, core.FromUnits(800), again.Budgets["Food"])
}

func TestApply_PartialPersistFailureRestoresStorage(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	store := &flakyStore{Store: mem}
	s := newLoaded(t, store)

	_, err := s.Apply(ctx, AddTransaction{Input: lunch()})
	require.NoError(t, err)
	before, err := mem.Get(ctx, kv.KeyTransactions)
	require.NoError(t, err)

	store.failKey = kv.KeyBudgets
	doc := `{"transactions":[{"id":"n","desc":"Bonus","amount":300,"type":"income","category":"Salary","date":"2024-03-02"}],"budgets":{"Food":1}}`
	_, err = s.Apply(ctx, ImportFile{Format: transfer.FormatJSON, Data: []byte(doc)})
	require.ErrorIs(t, err, errDisk)

	after, err := mem.Get(ctx, kv.KeyTransactions)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Len(t, s.Snapshot().Transactions, 1)

	store.failKey = ""
	reloaded := newLoaded(t, mem).Snapshot()
	assert.Equal(t, s.Snapshot().Transactions, reloaded.Transactions)
	assert.Equal(t, core.DefaultBudgets(), reloaded.Budgets)
}
