package transfer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

func TestParseCSV_SingleRowIntoEmptyLedger(t *testing.T) {
	parsed, err := ParseCSV("description,amount,kind,category,date\nLunch,45,expense,Food,2024-03-01\n")
	require.NoError(t, err)

	merged := Merge(nil, parsed)
	require.Len(t, merged, 1)
	assert.Equal(t, int64(4500), merged[0].Amount.Cents)
	assert.Equal(t, core.Expense, merged[0].Kind)
	assert.Equal(t, "Lunch", merged[0].Description)
	assert.Equal(t, "Food", merged[0].Category)
	assert.Equal(t, core.NewDate(2024, 3, 1), merged[0].Date)
	assert.NotEmpty(t, merged[0].ID)
}

func TestParseCSV(t *testing.T) {
	t.Run("header skipped, short rows dropped, fields trimmed", func(t *testing.T) {
		text := strings.Join([]string{
			"desc,amount,type,category,date",
			" Salary , 4500 , income , Salary , 2024-01-05 ",
			"too,short",
			"",
			"Bus,2.50,expense,Transport,2024-01-06\r",
		}, "\n")
		got, err := ParseCSV(text)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Salary", got[0].Description)
		assert.Equal(t, core.Income, got[0].Kind)
		assert.Equal(t, int64(250), got[1].Amount.Cents)
		assert.NotEqual(t, got[0].ID, got[1].ID)
	})

	t.Run("header only", func(t *testing.T) {
		got, err := ParseCSV("description,amount,kind,category,date")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("extra columns are ignored", func(t *testing.T) {
		got, err := ParseCSV("h\nTea,3,expense,Food,2024-01-01,note")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Food", got[0].Category)
	})

	bad := map[string]string{
		"bad amount": "h\nTea,abc,expense,Food,2024-01-01",
		"bad kind":   "h\nTea,3,transfer,Food,2024-01-01",
		"bad date":   "h\nTea,3,expense,Food,01/01/2024",
	}
	for name, text := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCSV(text)
			assert.True(t, errors.Is(err, ErrInvalidImport), "got %v", err)
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := []core.Transaction{
		{ID: "1", Description: "Rent", Amount: core.FromUnits(1200), Kind: core.Expense, Category: "Rent", Date: core.NewDate(2024, 1, 10)},
		{ID: "2", Description: "Gift", Amount: core.Money{Cents: 1999}, Kind: core.Income, Category: "Misc", Date: core.NewDate(2024, 1, 11)},
	}
	out, err := ParseCSV(WriteCSV(in))
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		out[i].ID = in[i].ID
	}
	assert.Equal(t, in, out)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("backup.JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrInvalidImport)
}

func TestExportImportRoundTrip(t *testing.T) {
	list := []core.Transaction{
		{ID: "a", Description: "Salary", Amount: core.FromUnits(4500), Kind: core.Income, Category: "Salary", Date: core.NewDate(2024, 1, 5)},
		{ID: "b", Description: "Coffee", Amount: core.Money{Cents: 350}, Kind: core.Expense, Category: "Food", Date: core.NewDate(2024, 1, 6)},
	}
	budgets := core.DefaultBudgets()

	data, err := NewDocument(list, budgets, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)).ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exportedAt": "2024-02-01T10:00:00Z"`)

	got, err := DecodeExport(data)
	require.NoError(t, err)
	assert.Equal(t, list, got.Transactions)
	assert.Equal(t, budgets, got.Budgets)

	assert.Equal(t, list, Merge(nil, got.Transactions))
}

func TestDecodeExport(t *testing.T) {
	t.Run("unparsable json", func(t *testing.T) {
		_, err := DecodeExport([]byte("{not json"))
		assert.ErrorIs(t, err, ErrInvalidImport)
	})

	t.Run("missing or mistyped fields are ignored", func(t *testing.T) {
		got, err := DecodeExport([]byte(`{"transactions": "nope", "budgets": [1,2]}`))
		require.NoError(t, err)
		assert.Nil(t, got.Transactions)
		assert.Nil(t, got.Budgets)
	})

	t.Run("invalid transaction fails the file", func(t *testing.T) {
		_, err := DecodeExport([]byte(`{"transactions":[{"id":"x","desc":"","amount":5,"type":"expense","category":"Food","date":"2024-01-01"}]}`))
		assert.ErrorIs(t, err, ErrInvalidImport)
	})

	t.Run("undated rows are kept", func(t *testing.T) {
		got, err := DecodeExport([]byte(`{"transactions":[{"id":"x","desc":"Tea","amount":3,"type":"expense","category":"Food","date":""},{"id":"y","desc":"Bus","amount":2,"type":"expense","category":"Transport","date":"soon"}]}`))
		require.NoError(t, err)
		require.Len(t, got.Transactions, 2)
		assert.True(t, got.Transactions[0].Date.IsEmpty())
		assert.True(t, got.Transactions[1].Date.IsEmpty())
	})

	t.Run("undated row with another bad field fails", func(t *testing.T) {
		_, err := DecodeExport([]byte(`{"transactions":[{"id":"x","desc":"Tea","amount":0,"type":"expense","category":"Food","date":""}]}`))
		assert.ErrorIs(t, err, ErrInvalidImport)
	})

	t.Run("browser app field names", func(t *testing.T) {
		got, err := DecodeExport([]byte(`{"transactions":[{"id":"x","desc":"Food","amount":230,"type":"expense","category":"Food","date":"2024-02-01"}],"budgets":{"Food":800}}`))
		require.NoError(t, err)
		require.Len(t, got.Transactions, 1)
		assert.Equal(t, int64(23000), got.Transactions[0].Amount.Cents)
		assert.Equal(t, core.FromUnits(800), got.Budgets["Food"])
	})
}

func TestMerge(t *testing.T) {
	existing := []core.Transaction{{ID: "a"}, {ID: "b"}}
	incoming := []core.Transaction{{ID: "a"}, {ID: ""}, {ID: "c"}, {ID: "c"}}

	got := Merge(existing, incoming)
	require.Len(t, got, 6)

	ids := make(map[string]struct{})
	for _, g := range got {
		ids[g.ID] = struct{}{}
	}
	assert.Len(t, ids, 6, "ids must stay unique")
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[4].ID)
	assert.Equal(t, "a", incoming[0].ID, "incoming must not be modified")
}

func TestExportImportRoundTrip_UndatedRow(t *testing.T) {
	list := []core.Transaction{
		{ID: "a", Description: "Legacy", Amount: core.FromUnits(10), Kind: core.Expense, Category: "Misc"},
	}
	data, err := NewDocument(list, nil, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)).ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date": ""`)

	got, err := DecodeExport(data)
	require.NoError(t, err)
	assert.Equal(t, list, got.Transactions)
}
