package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/rfscope"
	"github.com/jward/rfscope/internal/ctxlog"
)

var (
	flagDB       string
	flagFormat   string
	flagConfig   string
	flagLogLevel string
)

// cfg is the project configuration loaded before every command.
var cfg = &Config{}

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "rfscope",
	Short:         "Static variable scope analysis for Robot Framework suites",
	Long:          "rfscope lists the variables visible at a position of a Robot Framework file and caches parsed keyword spec files in a SQLite database.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		loaded, err := loadProjectConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.LogLevel
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		logger := newLogger(level, cfg.LogFormat, os.Stderr)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		return nil
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .rfscope/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "project config file (default: rfscope.hcl at repo root, if present)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(specCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(completeCmd)
}

var (
	flagForce   bool
	flagSerial  bool
	flagWorkers int
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index keyword spec files",
	Long:  "Parses *.libspec and *.xml keyword spec files and writes them to the SQLite database. Without a path, the spec_dirs of the project config are indexed, or the repo root when none are configured.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	indexCmd.Flags().BoolVar(&flagSerial, "serial", false, "parse spec files one at a time")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size (default: one per CPU)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	targetDirs, err := indexTargets(args)
	if err != nil {
		return err
	}

	// Resolve repo root and DB path.
	repoRoot := findRepoRoot(targetDirs[0])
	dbPath := resolveDBPath(repoRoot)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dbDir, err)
	}

	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	ix, err := rfscope.OpenIndex(dbPath, rfscope.WithParallel(!flagSerial), rfscope.WithWorkers(flagWorkers))
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer ix.Close()

	for _, dir := range targetDirs {
		if err := ix.IndexDirectory(ctx, dir); err != nil {
			return fmt.Errorf("indexing %s: %w", dir, err)
		}
	}

	libs, err := ix.Libraries()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexed %d libraries in %s\n", len(libs), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

// indexTargets returns the absolute directories to index: the argument if
// given, else the configured spec_dirs, else the current directory.
func indexTargets(args []string) ([]string, error) {
	if len(args) > 0 {
		dir, err := resolveTargetDir(args[0])
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	if len(cfg.SpecDirs) == 0 {
		dir, err := resolveTargetDir(".")
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	dirs := make([]string, 0, len(cfg.SpecDirs))
	for _, d := range cfg.SpecDirs {
		dir, err := resolveTargetDir(cfg.resolve(d))
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// resolveTargetDir returns the absolute path of an existing directory.
func resolveTargetDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".rfscope", "index.db")
}
