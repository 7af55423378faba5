// Command finboard-cli works on the same ledger as the server from a shell:
// print a summary, add or delete transactions, and move data in and out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"finboard/internal/cli"
	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/pipeline"
	"finboard/internal/services"
	"finboard/internal/transfer"
)

const usage = `usage: finboard-cli <command> [flags]

commands:
  summary   print totals, budgets and transactions
  add       record a transaction
  delete    remove transactions by id
  import    load a JSON export or CSV file
  export    write the ledger as JSON or CSV
  seed      load demo data into an empty ledger
  reset     erase every transaction and setting
`

var errUsage = errors.New("invalid usage")

func main() {
	cli.LoadEnvFile()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level, os.Getenv("LOG_FORMAT")).WithComponent(log.ComponentCLI)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.InitBackend(ctx, logger, cfg)

	store := ledger.New(res.Backend, logger)
	store.Load(ctx)
	svc := services.NewDashboardService(store, services.Options{
		CacheSize: 1,
		Logger:    logger,
	})

	err := run(ctx, svc, cfg.Currency, os.Args[1:], os.Stdout)

	_ = svc.Close()
	if res.Cleanup != nil {
		if cerr := res.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup failed", log.FieldError, cerr)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "finboard-cli:", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *services.DashboardService, currency string, args []string, out io.Writer) error {
	name, rest := args[0], args[1:]
	switch name {
	case "summary":
		return runSummary(ctx, svc, currency, rest, out)
	case "add":
		return runAdd(ctx, svc, rest, out)
	case "delete":
		return runDelete(ctx, svc, rest, out)
	case "import":
		return runImport(ctx, svc, rest, out)
	case "export":
		return runExport(svc, rest, out)
	case "seed":
		if err := svc.SeedIfEmpty(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Ledger holds %d transaction(s)\n", svc.View(ctx, pipeline.FilterSpec{}).Count)
		return nil
	case "reset":
		return runReset(ctx, svc, rest, out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func runSummary(ctx context.Context, svc *services.DashboardService, currency string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	q := fs.String("q", "", "text to search in description or category")
	category := fs.String("category", "", "exact category")
	kind := fs.String("type", "", "income or expense")
	from := fs.String("from", "", "first date, YYYY-MM-DD")
	to := fs.String("to", "", "last date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	v := svc.View(ctx, pipeline.ParseFilter(*q, *category, *kind, *from, *to))
	writeSummary(out, v, currency)
	return nil
}

func writeSummary(out io.Writer, v pipeline.View, currency string) {
	for _, ig := range v.Filter.Ignored {
		fmt.Fprintf(out, "warning: ignored unparsable bound %s\n", ig)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", v.Summary.Income.Format(currency))
	fmt.Fprintf(tw, "Expenses\t%s\n", v.Summary.Expenses.Format(currency))
	fmt.Fprintf(tw, "Balance\t%s\t(%s)\n", v.Summary.Balance.Format(currency), v.Summary.Status)
	_ = tw.Flush()

	if len(v.Budgets) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tUSED\tLIMIT\t%\tTIER")
		for _, b := range v.Budgets {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", b.Category, b.Used, b.Limit, b.Percent, b.Tier)
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCATEGORY\tTYPE\tAMOUNT\tID")
	for _, t := range v.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.Date, t.Description, t.Category, t.Kind, t.Amount, t.ID)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d transaction(s) • Net: %s\n", v.Count, v.Net.Format(currency))
}

func runAdd(ctx context.Context, svc *services.DashboardService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	desc := fs.String("desc", "", "description (required)")
	amount := fs.String("amount", "", "amount greater than 0 (required)")
	kind := fs.String("type", string(core.Expense), "income or expense")
	category := fs.String("category", "", "category")
	date := fs.String("date", svc.Now().Format(time.DateOnly), "date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	m, err := core.ParseAmount(*amount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", *amount, err)
	}
	d, err := core.ParseDate(*date)
	if err != nil {
		return fmt.Errorf("date %q: %w", *date, err)
	}

	_, outcome, err := svc.Apply(ctx, ledger.AddTransaction{Input: ledger.Input{
		Description: *desc,
		Amount:      m,
		Kind:        core.Kind(strings.TrimSpace(*kind)),
		Category:    *category,
		Date:        d,
	}}, pipeline.FilterSpec{})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %s\n", outcome.ID)
	return nil
}

func runDelete(ctx context.Context, svc *services.DashboardService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: delete needs at least one id", errUsage)
	}
	_, outcome, err := svc.Apply(ctx, ledger.DeleteTransactions{IDs: args}, pipeline.FilterSpec{})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %d transaction(s)\n", outcome.Affected)
	return nil
}

func runImport(ctx context.Context, svc *services.DashboardService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	format := fs.String("format", "", "json or csv; defaults to the file extension")
	replace := fs.Bool("replace", false, "replace transactions instead of appending (JSON only)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: import needs exactly one file", errUsage)
	}
	path := fs.Arg(0)

	name := *format
	if name == "" {
		name = filepath.Base(path)
	}
	f, err := transfer.ParseFormat(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	_, outcome, err := svc.Apply(ctx, ledger.ImportFile{
		Format:  f,
		Data:    data,
		Options: ledger.ImportOptions{Replace: *replace},
	}, pipeline.FilterSpec{})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d transaction(s)\n", outcome.Affected)
	return nil
}

func runExport(svc *services.DashboardService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", string(transfer.FormatJSON), "json or csv")
	path := fs.String("o", "", "output file; stdout when empty")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	f, err := transfer.ParseFormat(*format)
	if err != nil {
		return err
	}

	doc := svc.Export()
	var data []byte
	if f == transfer.FormatCSV {
		data = []byte(transfer.WriteCSV(doc.Transactions))
	} else if data, err = doc.ToJSON(); err != nil {
		return err
	}

	if *path == "" {
		_, err = out.Write(data)
		return err
	}
	if err := os.WriteFile(*path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d transaction(s) to %s\n", len(doc.Transactions), *path)
	return nil
}

func runReset(ctx context.Context, svc *services.DashboardService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm erasing all data")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if !*yes {
		return errors.New("reset erases all data; pass -yes to confirm")
	}
	if _, _, err := svc.Apply(ctx, ledger.ResetLedger{}, pipeline.FilterSpec{}); err != nil {
		return err
	}
	fmt.Fprintln(out, "Ledger reset")
	return nil
}
