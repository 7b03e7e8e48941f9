package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/engine"
	"github.com/fenilsonani/fileflow/internal/logger"
	"github.com/fenilsonani/fileflow/internal/reporter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
	dryRun     bool
	assumeYes  bool
	workers    int
	outputFmt  string
	outputFile string
	live       bool
	hashAlgo   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fileflow",
	Short: "Organize, deduplicate and tidy directories",
	Long: `FileFlow sorts files into category folders by extension, finds duplicate
files by content, sweeps temporary files and reports what a directory holds.

Destructive commands ask for confirmation unless --yes is given, and
--dry-run plans every move and deletion without touching anything.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "plan moves and deletions without touching files")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "concurrent workers per phase")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "summary", "output format (summary, table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "file", "", "write the report to a file instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&live, "live", true, "show live progress when attached to a terminal")
	rootCmd.PersistentFlags().StringVar(&hashAlgo, "hash", "", "digest for duplicate detection (md5, sha256, blake3)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(dupesCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
}

// resolveConfigPath returns --config or the default location
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	// Override config with flags
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("hash") {
		cfg.HashAlgorithm = hashAlgo
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	return cfg, cfg.Validate()
}

// newLogger logs to the configured file, or to stderr at warn level unless
// verbose so reports on stdout stay readable
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	level := cfg.Log.Level
	if cfg.Log.File == "" && !cfg.Verbose {
		level = "warn"
	}
	if cfg.Verbose {
		level = "debug"
	}
	return logger.NewLogger(cfg.Log.File, level)
}

// session bundles what every command needs
type session struct {
	cfg    *config.Config
	engine *engine.Engine
	log    *logger.Logger
}

func newSession(cmd *cobra.Command, mutate ...func(*config.Config)) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, m := range mutate {
		m(cfg)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	eng, err := engine.New(cfg, afero.NewOsFs(), log)
	if err != nil {
		log.Close()
		return nil, err
	}
	return &session{cfg: cfg, engine: eng, log: log}, nil
}

func (s *session) Close() {
	s.log.Close()
}

// report renders through a reporter for --output/--file
func report(fn func(*reporter.Reporter) error) error {
	format, err := reporter.ParseFormat(outputFmt)
	if err != nil {
		return err
	}
	if outputFile != "" {
		if err := reporter.SaveToFile(outputFile, format, fn); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report saved to: %s\n", outputFile)
		return nil
	}
	return fn(reporter.New(os.Stdout, format))
}

// structuredOutput reports whether stdout carries json/yaml, in which case
// prompts and notices go to stderr only
func structuredOutput() bool {
	format, err := reporter.ParseFormat(outputFmt)
	return err == nil && reporter.New(os.Stderr, format).Structured()
}

// rootArg returns the directory argument, defaulting to the working directory
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
