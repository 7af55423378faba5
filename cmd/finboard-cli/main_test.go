package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/kv/memory"
	"finboard/internal/ledger"
	"finboard/internal/services"
)

func newService(t *testing.T) *services.DashboardService {
	t.Helper()
	store := ledger.New(memory.New(), nil)
	store.Load(context.Background())
	svc := services.NewDashboardService(store, services.Options{
		CacheSize: 1,
		Now:       func() time.Time { return time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func runCmd(t *testing.T, svc *services.DashboardService, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), svc, "GHS", args, &out)
	return out.String(), err
}

func TestRun_AddAndSummary(t *testing.T) {
	svc := newService(t)

	out, err := runCmd(t, svc, "add", "-desc", "Salary", "-amount", "4500", "-type", "income", "-category", "Salary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Added "))

	_, err = runCmd(t, svc, "add", "-desc", "Rent", "-amount", "1200", "-category", "Rent", "-date", "2024-01-10")
	require.NoError(t, err)

	out, err = runCmd(t, svc, "summary", "-from", "2024-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "GHS 3300.00")
	assert.Contains(t, out, "net positive")
	assert.Contains(t, out, "2 transaction(s) • Net: GHS 3300.00")
	assert.Less(t, strings.Index(out, "2024-01-31"), strings.Index(out, "2024-01-10"), "newest first")

	out, err = runCmd(t, svc, "summary", "-to", "soon")
	require.NoError(t, err)
	assert.Contains(t, out, "ignored unparsable bound to=soon")
}

func TestRun_AddRejectsBadInput(t *testing.T) {
	svc := newService(t)

	_, err := runCmd(t, svc, "add", "-desc", "Tea", "-amount", "0")
	assert.Error(t, err)

	_, err = runCmd(t, svc, "add", "-desc", "Tea", "-amount", "3", "-date", "31/01/2024")
	assert.Error(t, err)

	_, err = runCmd(t, svc, "add", "-amount", "3")
	assert.Error(t, err, "description is required")
}

func TestRun_ImportExport(t *testing.T) {
	svc := newService(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "bank.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("description,amount,kind,category,date\nLunch,45,expense,Food,2024-01-20\nBus,2.5,expense,Transport,2024-01-21\n"), 0o644))

	out, err := runCmd(t, svc, "import", csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 transaction(s)\n", out)

	out, err = runCmd(t, svc, "export", "-format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Lunch,45.00,expense,Food,2024-01-20")

	jsonPath := filepath.Join(dir, "finance-export.json")
	out, err = runCmd(t, svc, "export", "-o", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 transaction(s)")

	other := newService(t)
	_, err = runCmd(t, other, "import", jsonPath)
	require.NoError(t, err)
	out, err = runCmd(t, other, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "2 transaction(s)")

	_, err = runCmd(t, svc, "import", filepath.Join(dir, "data.xlsx"))
	assert.Error(t, err)
}

func TestRun_DeleteSeedReset(t *testing.T) {
	svc := newService(t)

	out, err := runCmd(t, svc, "seed")
	require.NoError(t, err)
	assert.Equal(t, "Ledger holds 8 transaction(s)\n", out)

	id := svc.Export().Transactions[0].ID
	out, err = runCmd(t, svc, "delete", id)
	require.NoError(t, err)
	assert.Equal(t, "Deleted 1 transaction(s)\n", out)

	_, err = runCmd(t, svc, "delete", id)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = runCmd(t, svc, "reset")
	assert.Error(t, err)

	out, err = runCmd(t, svc, "reset", "-yes")
	require.NoError(t, err)
	assert.Equal(t, "Ledger reset\n", out)
	assert.Empty(t, svc.Export().Transactions)
}

func TestRun_Usage(t *testing.T) {
	svc := newService(t)

	_, err := runCmd(t, svc, "frobnicate")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, svc, "delete")
	assert.ErrorIs(t, err, errUsage)
}
