package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fenilsonani/fileflow/internal/analyzer"
	"github.com/fenilsonani/fileflow/internal/cleaner"
	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/logger"
	"github.com/fenilsonani/fileflow/internal/organizer"
	"github.com/fenilsonani/fileflow/internal/progress"
	"github.com/fenilsonani/fileflow/internal/reporter"
	"github.com/fenilsonani/fileflow/internal/scanner"
	"github.com/fenilsonani/fileflow/internal/ui"
	"github.com/fenilsonani/fileflow/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	deleteFound bool
	topN        int
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "List every file below a directory",
	Long:  `Walks the directory and reports the files found without changing anything.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		root := rootArg(args)
		var files []scanner.FileRecord
		var dirErrs []scanner.DirError
		err = withProgress(cmd.Context(), s, "Scanning", func(ctx context.Context) error {
			var err error
			files, dirErrs, err = s.engine.Scan(ctx, root)
			return err
		})
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error {
			return r.ReportScan(root, files, dirErrs)
		})
	},
}

var organizeCmd = &cobra.Command{
	Use:   "organize [dir]",
	Short: "Move files into category folders",
	Long: `Moves every file below the directory into <dir>/<Category>/ based on its
extension. Files with an unknown extension go to Others; name collisions get
a _1, _2, ... suffix and nothing is ever overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		root := rootArg(args)
		if !s.cfg.DryRun {
			files, _, err := s.engine.Scan(cmd.Context(), root)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			if len(files) == 0 {
				notice("No files to organize.")
				return nil
			}
			ok, err := confirm(fmt.Sprintf("Move %d files below %s into category folders?", len(files), root))
			if err != nil || !ok {
				if err == nil {
					notice("Organize cancelled")
				}
				return err
			}
		}

		var rep *organizer.OrganizeReport
		runErr := withProgress(cmd.Context(), s, "Organizing", func(ctx context.Context) error {
			var err error
			rep, err = s.engine.Organize(ctx, root)
			return err
		})
		if rep != nil && rep.Total > 0 {
			if err := report(func(r *reporter.Reporter) error { return r.ReportOrganize(rep) }); err != nil {
				return err
			}
			recordRun(s, &config.RunRecord{
				Operation: "organize",
				Root:      rep.Root,
				DryRun:    rep.DryRun,
				Files:     rep.Succeeded,
				Failed:    rep.Failed,
			})
		}
		if runErr != nil {
			return fmt.Errorf("organize failed: %w", runErr)
		}
		return nil
	},
}

var dupesCmd = &cobra.Command{
	Use:   "dupes [dir]",
	Short: "Find files with identical content",
	Long: `Groups files by content digest. With --delete every copy except the one
with the earliest modification time is removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		root := rootArg(args)
		var dupes *scanner.DuplicateReport
		err = withProgress(cmd.Context(), s, "Hashing", func(ctx context.Context) error {
			var err error
			dupes, err = s.engine.FindDuplicates(ctx, root)
			return err
		})
		if err != nil {
			return fmt.Errorf("duplicate search failed: %w", err)
		}

		if err := showCandidates(s, os.Stderr, func(r *reporter.Reporter) error { return r.ReportDuplicates(dupes) }); err != nil {
			return err
		}
		if !deleteFound || len(dupes.Groups) == 0 {
			return nil
		}

		if !s.cfg.DryRun {
			question := fmt.Sprintf("Delete %d redundant copies (%s)?", dupes.DuplicateCount, utils.FormatBytes(dupes.ReclaimableBytes))
			ok, err := confirm(question)
			if err != nil || !ok {
				if err == nil {
					notice("Deletion cancelled")
				}
				return err
			}
		}

		return clean(cmd.Context(), s, "Removing duplicates", root, func(ctx context.Context) (*cleaner.CleanResult, error) {
			return s.engine.RemoveDuplicates(ctx, dupes.Groups)
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep [dir]",
	Short: "Find temporary files",
	Long: `Lists files whose names match the temporary-file rules (suffixes such as
.tmp or .part, substrings such as cache). With --delete they are removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		root := rootArg(args)
		var sweep *scanner.SweepReport
		err = withProgress(cmd.Context(), s, "Sweeping", func(ctx context.Context) error {
			var err error
			sweep, err = s.engine.Sweep(ctx, root)
			return err
		})
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		if err := showCandidates(s, os.Stderr, func(r *reporter.Reporter) error { return r.ReportSweep(sweep) }); err != nil {
			return err
		}
		if !deleteFound || len(sweep.Candidates) == 0 {
			return nil
		}

		if !s.cfg.DryRun {
			question := fmt.Sprintf("Delete %d temporary files (%s)?", len(sweep.Candidates), utils.FormatBytes(sweep.TotalBytes))
			ok, err := confirm(question)
			if err != nil || !ok {
				if err == nil {
					notice("Deletion cancelled")
				}
				return err
			}
		}

		return clean(cmd.Context(), s, "Deleting", root, func(ctx context.Context) (*cleaner.CleanResult, error) {
			return s.engine.ExecuteSweep(ctx, sweep.Candidates)
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [dir]",
	Short: "Summarize sizes, categories and ages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, func(c *config.Config) {
			if cmd.Flags().Changed("top") {
				c.Analyze.TopN = topN
			}
		})
		if err != nil {
			return err
		}
		defer s.Close()

		root := rootArg(args)
		var stats *analyzer.AggregateStats
		err = withProgress(cmd.Context(), s, "Analyzing", func(ctx context.Context) error {
			var err error
			stats, err = s.engine.Analyze(ctx, root)
			return err
		})
		if err != nil {
			return fmt.Errorf("analyze failed: %w", err)
		}

		return report(func(r *reporter.Reporter) error { return r.ReportAnalyze(stats) })
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Organize files as they arrive",
	Long: `Watches the top level of the directory and moves each new file into its
category folder once it stops changing. Temporary and partial downloads are
ignored. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		// moves are reported through the log
		if s.log.Level() > logger.LevelInfo {
			s.log.SetLevel(logger.LevelInfo)
		}

		root := rootArg(args)
		notice(fmt.Sprintf("Watching %s, press Ctrl+C to stop", root))
		summary, err := s.engine.Watch(cmd.Context(), root)
		if err != nil {
			return fmt.Errorf("watch failed: %w", err)
		}

		notice(fmt.Sprintf("Organized %d files (%d skipped, %d failed) in %s",
			summary.Organized, summary.Skipped, summary.Failed, progress.FormatDuration(summary.Duration)))
		if summary.Dropped > 0 {
			notice(fmt.Sprintf("%d files were still changing and were left in place", summary.Dropped))
		}
		recordRun(s, &config.RunRecord{
			Operation: "watch",
			Root:      root,
			DryRun:    s.cfg.DryRun,
			Files:     summary.Organized,
			Failed:    summary.Failed,
		})
		return nil
	},
}

func init() {
	dupesCmd.Flags().BoolVar(&deleteFound, "delete", false, "delete redundant copies after confirmation")
	sweepCmd.Flags().BoolVar(&deleteFound, "delete", false, "delete temporary files after confirmation")
	analyzeCmd.Flags().IntVar(&topN, "top", analyzer.DefaultTopN, "number of largest files and extensions to list")
}

// withProgress runs fn with the live progress display on stderr when
// enabled
func withProgress(ctx context.Context, s *session, title string, fn func(ctx context.Context) error) error {
	if !live {
		return fn(ctx)
	}
	return ui.Run(ctx, s.engine.Progress(), os.Stderr, title, fn)
}

// showCandidates renders what dupes or sweep found. With --delete and
// json/yaml output stdout carries only the deletion result, so when a prompt
// follows the candidates are listed on stderr instead.
func showCandidates(s *session, stderr io.Writer, fn func(*reporter.Reporter) error) error {
	if !deleteFound || !structuredOutput() {
		return report(fn)
	}
	if s.cfg.DryRun || assumeYes {
		return nil
	}
	return fn(reporter.New(stderr, reporter.FormatTable))
}

// clean runs a deletion, reports it and records it in the history
func clean(ctx context.Context, s *session, title, root string, fn func(ctx context.Context) (*cleaner.CleanResult, error)) error {
	var result *cleaner.CleanResult
	runErr := withProgress(ctx, s, title, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if result != nil {
		if err := report(func(r *reporter.Reporter) error { return r.ReportClean(result) }); err != nil {
			return err
		}
		recordRun(s, &config.RunRecord{
			ID:           result.RunID,
			Operation:    result.Operation,
			Root:         root,
			DryRun:       result.DryRun,
			Files:        result.DeletedCount(),
			Bytes:        result.DeletedSize,
			Failed:       len(result.Errors),
			ManifestPath: result.ManifestPath,
		})
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// confirm asks on stderr unless --yes was given. Without a terminal there
// is nobody to ask, so the answer is no.
func confirm(question string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !ui.IsTerminal(os.Stdin) {
		return false, fmt.Errorf("confirmation required: rerun with --yes or --dry-run")
	}
	return ui.Confirm(os.Stdin, os.Stderr, question)
}

// notice prints a status line that is not part of the report
func notice(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// recordRun appends a run to the history; failures only warn
func recordRun(s *session, rec *config.RunRecord) {
	hs, err := config.NewHistoryStore("")
	if err == nil {
		err = hs.Save(rec)
	}
	if err != nil {
		s.log.Warn("Could not record run history: %v", err)
	}
}
