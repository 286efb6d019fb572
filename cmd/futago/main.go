// Package main is the futago CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/futago/internal/cli"
	"github.com/hyperjump/futago/internal/config"
	"github.com/hyperjump/futago/internal/detector"
	"github.com/hyperjump/futago/internal/extract"
	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/internal/provider"
	"github.com/hyperjump/futago/internal/review"
	"github.com/hyperjump/futago/internal/scanner"
	"github.com/hyperjump/futago/internal/server"
	"github.com/hyperjump/futago/internal/similarity"
	"github.com/hyperjump/futago/internal/storage"
	"github.com/hyperjump/futago/internal/watcher"
	"github.com/hyperjump/futago/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/futago/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// loadConfigOrDefault is loadConfig for commands that can run without a config file.
// A missing file yields the defaults and an empty resolved path.
func loadConfigOrDefault(path string) (*config.Config, string, error) {
	cfg, resolved, err := loadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), "", nil
	}
	return cfg, resolved, err
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "scan":
		runScan()
	case "compare":
		runCompare()
	case "server":
		runServer()
	case "import":
		runImport()
	case "delete":
		runDelete()
	case "undo", "redo":
		runHistory(command)
	case "version", "--version", "-v":
		fmt.Printf("futago version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// scanOverrides holds the scan flags that replace configured settings. Negative numbers
// and a nil exclude list mean "keep the configured value".
type scanOverrides struct {
	threshold int
	minLength int
	exclude   *string
	configDir string // always excluded
}

// apply returns settings with the overrides applied.
func (o scanOverrides) apply(settings config.Settings) config.Settings {
	if o.threshold >= 0 {
		settings.SimilarityThreshold = o.threshold
	}
	if o.minLength >= 0 {
		settings.MinContentLength = o.minLength
	}
	if o.exclude != nil {
		settings.ExcludedFolders = splitList(*o.exclude)
		settings = settings.WithConfigDir(o.configDir)
	}
	return settings
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// scanArgsReorder moves flags that appear after the vault path to the front so that
// flag.Parse sees them; the flag package stops at the first non-flag argument.
func scanArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runScan() {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	threshold := fs.Int("threshold", -1, "similarity threshold 0-100 (default from config)")
	minLength := fs.Int("min-length", -1, "minimum content length in characters (default from config)")
	exclude := fs.String("exclude", "", "comma-separated folders to skip (replaces configured list)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	serverURL := fs.String("server", "", "run the scan on a futago server instead of locally")
	showProgress := fs.Bool("progress", false, "print progress to stderr")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(scanArgsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		report, err := scanViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
		summary := cli.Summary{RunID: report.RunID, Documents: report.Documents, Unreadable: report.Unreadable}
		if err := cli.WriteGroups(os.Stdout, summary, report.Groups, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		cfg.Source.Type = config.SourceVault
		cfg.Source.VaultPath = fs.Arg(0)
	}
	overrides := scanOverrides{threshold: *threshold, minLength: *minLength, configDir: cfg.Source.ConfigDir}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "exclude" {
			overrides.exclude = exclude
		}
	})
	settings := overrides.apply(cfg.Detection.Settings())
	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.Detection.SetSettings(settings)

	logger, err := utils.NewCLILogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var onProgress models.ProgressFunc
	if *showProgress {
		onProgress = cli.NewProgressPrinter(os.Stderr)
	}
	report, err := components.Detector.Run(ctx, onProgress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}
	summary := cli.Summary{Documents: len(report.Scan.Documents), Unreadable: unreadablePaths(report.Scan)}
	if err := cli.WriteGroups(os.Stdout, summary, report.Groups, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func unreadablePaths(res *scanner.Result) []string {
	if res == nil {
		return nil
	}
	paths := make([]string, 0, len(res.Unreadable))
	for _, e := range res.Unreadable {
		paths = append(paths, e.Path)
	}
	return paths
}

func runCompare() {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 2 {
		fmt.Println("Usage: futago compare [flags] <fileA> <fileB>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c, err := compareFiles(extract.NewExtractor(), fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compare failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteComparison(os.Stdout, c, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// compareFiles extracts the text of two files and scores them.
func compareFiles(ex *extract.Extractor, pathA, pathB string) (cli.Comparison, error) {
	var docs [2]*models.Document
	for i, p := range []string{pathA, pathB} {
		text, err := ex.Extract(p)
		if err != nil {
			return cli.Comparison{}, fmt.Errorf("read %s: %w", p, err)
		}
		docs[i] = scanner.NewDocument(provider.DocumentRef{Path: p, Title: provider.TitleFromPath(p)}, text)
	}
	pa, pb := similarity.NewProfile(docs[0].Content), similarity.NewProfile(docs[1].Content)
	return cli.Comparison{
		A:           docs[0],
		B:           docs[1],
		Similarity:  similarity.Compare(pa, pb),
		LengthRatio: similarity.LengthRatio(pa.Len(), pb.Len()),
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (watcher events, detection passes, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("source", cfg.Source.Type),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	session := components.Session
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	var watchSvc *watcher.Watcher
	if cfg.Watch.Enabled && components.Vault != nil {
		watchOpts := []watcher.WatcherOption{
			watcher.WithDebounce(cfg.Watch.Debounce()),
			watcher.WithExcluded(cfg.Detection.ExcludedFolders),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewWatcher(
			components.Vault.Root(),
			cfg.Source.Extensions,
			func(paths []string) {
				if session.Changed(watchCtx, paths) {
					logger.Info("rescan requested", zap.Int("changed", len(paths)))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	} else if cfg.Watch.Enabled {
		logger.Warn("watch is only supported for vault sources", zap.String("source", cfg.Source.Type))
	}

	srvOpts := []server.Option{server.WithUsage(usageFunc(cfg))}
	if watchSvc != nil {
		srvOpts = append(srvOpts, server.WithSettingsHook(func(s config.Settings) {
			watchSvc.SetExcluded(s.ExcludedFolders)
		}))
	}
	srv := server.NewServer(session, components.Source, cfg, resolvedConfigPath, logger, srvOpts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	session.Wait()
}

// usageFunc returns the disk usage reporter for the configured source.
func usageFunc(cfg *config.Config) server.UsageFunc {
	if cfg.Source.Type == config.SourceSQLite {
		dbPath := cfg.Source.DatabasePath
		return func() (storage.Usage, error) { return storage.DatabaseUsage(dbPath) }
	}
	root := cfg.Source.VaultPath
	return func() (storage.Usage, error) { return storage.VaultUsage(root, provider.TrashDir) }
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dbPath := fs.String("db", "", "database path (default from config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: futago import [flags] <vault-directory>")
		os.Exit(1)
	}

	cfg, _, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Source.DatabasePath = *dbPath
	}
	logger, err := utils.NewCLILogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	vault, err := provider.NewVault(fs.Arg(0), cfg.Source.Extensions,
		provider.WithExtractor(extract.NewExtractor()),
		provider.WithLogger(logger),
	)
	if err != nil {
		fmt.Printf("Failed to open vault: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStore(cfg.Source.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	n, err := importNotes(context.Background(), vault, store, cfg.Detection.ExcludedFolders, logger)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d notes into %s\n", n, cfg.Source.DatabasePath)
}

// importNotes copies every readable, non-excluded document of src into store in one transaction.
// Unreadable documents are logged and skipped.
func importNotes(ctx context.Context, src provider.ContentProvider, store storage.Store, excluded []string, logger *zap.Logger) (int, error) {
	refs, err := src.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	notes := make([]*storage.Note, 0, len(refs))
	for _, ref := range refs {
		if scanner.IsExcluded(ref.Path, excluded) {
			continue
		}
		content, err := src.ReadContent(ctx, ref.Path)
		if err != nil {
			logger.Warn("skipping unreadable note", zap.String("path", ref.Path), zap.Error(err))
			continue
		}
		notes = append(notes, &storage.Note{Path: ref.Path, Title: ref.Title, Content: content})
	}
	if err := store.PutNotes(ctx, notes); err != nil {
		return 0, fmt.Errorf("store notes: %w", err)
	}
	return len(notes), nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8765", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 2 {
		fmt.Println("Usage: futago delete [flags] <group-id> <path>")
		os.Exit(1)
	}
	doc, err := deleteViaHTTP(*serverURL, fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Moved to trash: %s\n", doc.Path)
}

func runHistory(command string) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8765", "server URL")
	_ = fs.Parse(os.Args[2:])

	doc, err := historyViaHTTP(*serverURL, command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}
	if command == "undo" {
		fmt.Printf("Restored: %s\n", doc.Path)
	} else {
		fmt.Printf("Moved to trash: %s\n", doc.Path)
	}
}

// Components holds initialized services.
type Components struct {
	Source   provider.Source
	Vault    *provider.Vault // nil unless the source is a vault
	Store    storage.Store   // nil unless the source is SQLite
	Detector *detector.Detector
	Session  *review.Session
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	switch cfg.Source.Type {
	case config.SourceVault:
		vault, err := provider.NewVault(cfg.Source.VaultPath, cfg.Source.Extensions,
			provider.WithExtractor(extract.NewExtractor()),
			provider.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open vault: %w", err)
		}
		c.Vault = vault
		c.Source = vault
	case config.SourceSQLite:
		store, err := storage.NewSQLiteStore(cfg.Source.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Store = store
		c.Source = store
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}

	settings := cfg.Detection.Settings().Clamp()
	c.Detector = detector.NewDetector(c.Source, settings, detector.WithLogger(logger))
	c.Session = review.NewSession(c.Detector, c.Source, review.WithLogger(logger))
	return c, nil
}

func printUsage() {
	fmt.Println(`futago - find duplicate and near-duplicate notes

Usage:
  futago scan [flags] [vault]           Detect duplicates and print the groups
  futago compare [flags] <a> <b>        Score two files against each other
  futago server [flags]                 Start the HTTP review server
  futago import [flags] <dir>           Copy a vault directory into the SQLite note store
  futago delete [flags] <group> <path>  Move a group member to the trash (via server)
  futago undo [flags]                   Restore the last deleted document (via server)
  futago redo [flags]                   Delete the last restored document again (via server)
  futago version                        Show version
  futago help                           Show this help

Scan Flags:
  --config string     Config file path (default: /usr/local/etc/futago/config.yaml)
  --threshold int     Similarity threshold 0-100 (default from config, or 80)
  --min-length int    Minimum content length in characters (default from config, or 50)
  --exclude string    Comma-separated folders to skip
  --output string     Output format: text, compact, or json (default: text)
  --server string     Run the scan on a running server
  --progress          Print progress to stderr

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging

Import Flags:
  --config string    Config file path
  --db string        Database path (default from config)

Delete/Undo/Redo Flags:
  --server string    Server URL (default: http://localhost:8765)

Examples:
  futago scan ~/notes
  futago scan --threshold 90 --output json ~/notes
  futago compare a.md b.md
  futago server
  futago import ~/notes
  futago delete content-5e918d2 notes/copy.md
  futago undo`)
}
