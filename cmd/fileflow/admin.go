package main

import (
	"fmt"
	"os"

	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/fenilsonani/fileflow/internal/reporter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	forceInit  bool
	pruneDays  int
	latestOnly bool
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show or edit the category table",
	Long: `Lists the categories in lookup order. The first category that lists an
extension wins; anything unlisted goes to Others. Edits are saved to the
config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		return report(func(r *reporter.Reporter) error { return r.ReportCategories(s.engine.Categories()) })
	},
}

var categoriesSetCmd = &cobra.Command{
	Use:   "set NAME EXT...",
	Short: "Create or replace a category",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editCategories(cmd, func(s *session) error {
			return s.engine.SetCategory(args[0], args[1:])
		})
	},
}

var categoriesAddExtCmd = &cobra.Command{
	Use:   "add-ext NAME EXT...",
	Short: "Add extensions to an existing category",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editCategories(cmd, func(s *session) error {
			for _, ext := range args[1:] {
				if err := s.engine.AddExtension(args[0], ext); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var categoriesRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Delete a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editCategories(cmd, func(s *session) error {
			return s.engine.RemoveCategory(args[0])
		})
	},
}

// editCategories applies edit and saves the resulting table
func editCategories(cmd *cobra.Command, edit func(s *session) error) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := edit(s); err != nil {
		return err
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := config.Save(s.cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	notice(fmt.Sprintf("Saved categories to %s", path))

	return report(func(r *reporter.Reporter) error { return r.ReportCategories(s.engine.Categories()) })
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display current configuration",
	Long:  `Shows the configuration in effect, including defaults for unset fields.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			notice("Config file does not exist. Using default configuration.")
			notice("Create it with: fileflow config init")
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented example config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := writeExampleConfig(path); err != nil {
			return err
		}
		notice(fmt.Sprintf("Wrote %s", path))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous organize, duplicate and sweep runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hs, err := config.NewHistoryStore("")
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("prune") {
			removed, err := hs.Prune(pruneDays)
			if err != nil {
				return err
			}
			notice(fmt.Sprintf("Removed %d records older than %d days", removed, pruneDays))
		}

		var records []*config.RunRecord
		if latestOnly {
			latest, err := hs.Latest()
			if err != nil {
				return err
			}
			records = []*config.RunRecord{latest}
		} else if records, err = hs.List(); err != nil {
			return err
		}
		return report(func(r *reporter.Reporter) error { return r.ReportHistory(records) })
	},
}

func init() {
	categoriesCmd.AddCommand(categoriesSetCmd)
	categoriesCmd.AddCommand(categoriesAddExtCmd)
	categoriesCmd.AddCommand(categoriesRemoveCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	historyCmd.Flags().IntVar(&pruneDays, "prune", 30, "delete records older than this many days")
	historyCmd.Flags().BoolVar(&latestOnly, "latest", false, "show only the most recent run")
}

// writeExampleConfig writes the commented example after checking it parses
func writeExampleConfig(path string) error {
	example := config.GetExampleConfig()
	cfg := config.GetDefault()
	if err := yaml.Unmarshal([]byte(example), cfg); err != nil {
		return fmt.Errorf("example config is invalid: %w", err)
	}
	if err := config.WriteRaw(path, []byte(example)); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
