package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/app"
	"github.com/dvloznov/financeiro/internal/assistant"
	"github.com/dvloznov/financeiro/internal/config"
	infraBQ "github.com/dvloznov/financeiro/internal/infra/bigquery"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/jobs"
	"github.com/dvloznov/financeiro/internal/logger"
	"github.com/dvloznov/financeiro/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "summary":
		runSummary()
	case "chat":
		runChat()
	case "recurring":
		runRecurring()
	case "import":
		runImport()
	case "export":
		runExport()
	case "template":
		runTemplate()
	case "export-bq":
		runExportBQ()
	case "backup":
		runBackup()
	case "restore":
		runRestore()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Financeiro CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  summary     Show balances, month totals and recent transactions")
	fmt.Println("  chat        Talk to the assistant (one message with -m, or interactive)")
	fmt.Println("  recurring   Generate the recurring transactions that are due")
	fmt.Println("  import      Import transactions from a CSV sheet or a PDF/image statement")
	fmt.Println("  export      Export every transaction as CSV")
	fmt.Println("  template    Write an import template CSV")
	fmt.Println("  export-bq   Export every transaction to BigQuery")
	fmt.Println("  backup      Copy the stored state to a local file")
	fmt.Println("  restore     Replace the stored state with a local backup")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup parses the subcommand flags and loads configuration. Every
// subcommand accepts -config.
func setup(fs *flag.FlagSet) (config.Config, zerolog.Logger) {
	configPath := fs.String("config", "", "Path to financeiro.toml (or set FINANCEIRO_CONFIG)")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	return cfg, logger.NewWithLevel(cfg.Log.Level, cfg.Log.JSON)
}

func openApp(ctx context.Context, cfg config.Config, log zerolog.Logger) *app.App {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	return a
}

// output returns the file named by path, or stdout for "" and "-".
func output(path string) (*os.File, func()) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return f, func() { f.Close() }
}

func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	cfg, log := setup(fs)

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	fmt.Print(assistant.BuildFinancialContext(a.Session.Snapshot(), a.Ledger.Now()))
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	message := fs.String("m", "", "Send one message and exit")
	image := fs.String("image", "", "Path to an image (receipt, statement) to attach to -m")
	cfg, log := setup(fs)

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	send := func(text, img string) {
		ex := a.Dispatcher.Send(ctx, a.Session, text, img)
		fmt.Printf("\n%s\n", ex.Reply)
		for _, r := range ex.ToolResults {
			log.Debug().Str("tool", r.Tool).Int("round", r.Round).Str("result", r.Result).Msg("Tool executed")
		}
	}

	if *message != "" {
		img, err := loadImage(*image)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read image")
		}
		send(*message, img)
		return
	}

	fmt.Println("Financeiro AI. Type a message, or 'sair' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "sair" || text == "exit" {
			break
		}
		send(text, "")
	}
}

func runRecurring() {
	fs := flag.NewFlagSet("recurring", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "List the rules that are due without generating anything")
	cfg, log := setup(fs)

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	if *dryRun {
		printDue(a)
		return
	}

	n, err := a.CheckRecurring(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Recurring check failed")
	}
	fmt.Printf("Generated %d recurring transaction(s).\n", n)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "Path to the CSV sheet, or to a PDF/image statement")
	account := fs.String("account", "", "Account ID for statement rows (default: account named in the statement)")
	cfg, log := setup(fs)

	if *file == "" {
		log.Fatal().Msg("Usage: cli import -file PATH [-account ID]")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	job := &jobs.ImportJob{
		JobID:     uuid.NewString(),
		Source:    *file,
		AccountID: *account,
		CreatedAt: time.Now(),
	}

	if strings.EqualFold(filepath.Ext(*file), ".csv") {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open sheet")
		}
		defer f.Close()

		job.Rows, job.ParseErrors, err = importer.ReadCSV(f, a.Session.Snapshot())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read sheet")
		}
	} else {
		doc, err := loadDocument(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read statement")
		}
		job.Type = jobs.JobTypeStatement
		job.Document = &doc
	}

	if err := jobs.NewImportHandler(a.Session, a.Reconciler, a.Statements, log)(ctx, job); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
	parseErrors := job.ParseErrors
	for row, msg := range parseErrors {
		fmt.Printf("  linha %d ignorada: %s\n", row, msg)
	}

	r := job.Report
	fmt.Printf("Imported %d of %d row(s), skipped %d.\n", r.Imported, r.Total+len(parseErrors), r.Skipped+len(parseErrors))
	if len(r.CreatedAccounts) > 0 {
		fmt.Printf("New accounts: %s\n", strings.Join(r.CreatedAccounts, ", "))
	}
	if len(r.CreatedCategories) > 0 {
		fmt.Printf("New categories: %s\n", strings.Join(r.CreatedCategories, ", "))
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "Output file (default stdout)")
	cfg, log := setup(fs)

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	w, closeFn := output(*out)
	defer closeFn()
	if err := importer.WriteCSV(w, a.Session.Snapshot()); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
}

func runTemplate() {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	out := fs.String("out", "", "Output file (default stdout)")
	cfg, log := setup(fs)

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	w, closeFn := output(*out)
	defer closeFn()
	if err := importer.WriteTemplate(w, a.Session.Snapshot(), a.Ledger.Now()); err != nil {
		log.Fatal().Err(err).Msg("Template failed")
	}
}

func runExportBQ() {
	fs := flag.NewFlagSet("export-bq", flag.ExitOnError)
	verify := fs.Bool("verify", false, "Count the exported rows afterwards")
	cfg, log := setup(fs)

	if cfg.BigQuery.Project == "" {
		log.Fatal().Msg("bigquery.project is required (FINANCEIRO_BIGQUERY_PROJECT)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := openApp(ctx, cfg, log)
	defer a.Close()

	exp, err := infraBQ.NewExporter(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset, cfg.BigQuery.Table, cfg.GCP.CredentialsFile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exporter")
	}
	defer exp.Close()

	if err := exp.EnsureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure export table")
	}
	res, err := exp.Export(ctx, a.Session.Snapshot())
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	fmt.Printf("Exported %d row(s) as %s.\n", res.Rows, res.ExportID)

	if *verify {
		n, err := exp.CountRows(ctx, res.ExportID)
		if err != nil {
			log.Fatal().Err(err).Msg("Verification query failed")
		}
		fmt.Printf("BigQuery reports %d row(s) for this export.\n", n)
	}
}

func runBackup() {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	out := fs.String("out", "", "Backup file path (default financeiro-backup-DATE.json)")
	cfg, log := setup(fs)

	if *out == "" {
		*out = fmt.Sprintf("financeiro-backup-%s.json", time.Now().Format("2006-01-02"))
	}
	n := copyState(cfg, log, true, *out)
	fmt.Printf("Backed up %d bytes to %s\n", n, *out)
}

func runRestore() {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	in := fs.String("in", "", "Backup file to restore")
	cfg, log := setup(fs)

	if *in == "" {
		log.Fatal().Msg("Usage: cli restore -in PATH")
	}
	n := copyState(cfg, log, false, *in)
	fmt.Printf("Restored %d bytes from %s\n", n, *in)
}

// copyState moves the blob between the configured backend and a local file
// without loading it into a session.
func copyState(cfg config.Config, log zerolog.Logger, toFile bool, path string) int {
	ctx := logger.WithContext(context.Background(), log)

	backend, err := store.NewPersister(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer backend.Close()
	file := store.NewFilePersister(path)

	from, to := store.Persister(backend), store.Persister(file)
	if !toFile {
		from, to = to, from
	}
	n, err := store.Copy(ctx, from, to)
	if err != nil {
		log.Fatal().Err(err).Msg("Copy failed")
	}
	return n
}
