package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/fileflow/internal/classifier"
	"github.com/fenilsonani/fileflow/internal/filelock"
	"github.com/fenilsonani/fileflow/internal/security"
	"github.com/fenilsonani/fileflow/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Workers         int              `yaml:"workers"`
	HashAlgorithm   string           `yaml:"hash_algorithm"` // "md5", "sha256", "blake3"
	DryRun          bool             `yaml:"dry_run"`
	Verbose         bool             `yaml:"verbose"`
	Categories      []CategoryConfig `yaml:"categories"`
	ExcludePatterns []string         `yaml:"exclude_patterns"`
	ProtectedPaths  []string         `yaml:"protected_paths"`
	Organize        OrganizeConfig   `yaml:"organize"`
	Duplicates      DuplicatesConfig `yaml:"duplicates"`
	Sweep           SweepConfig      `yaml:"sweep"`
	Analyze         AnalyzeConfig    `yaml:"analyze"`
	Watch           WatchConfig      `yaml:"watch"`
	Log             LogConfig        `yaml:"log"`
}

// CategoryConfig is one entry of the ordered category table
type CategoryConfig struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
}

// OrganizeConfig holds organize settings
type OrganizeConfig struct {
	MaxSuffixAttempts int    `yaml:"max_suffix_attempts"`
	ManifestDir       string `yaml:"manifest_dir"` // where deletion manifests are written; empty disables
}

// DuplicatesConfig holds duplicate detection settings
type DuplicatesConfig struct {
	MinSize string `yaml:"min_size"` // e.g. "1KB"; smaller files are not hashed
}

// SweepConfig holds temp-file sweep rules
type SweepConfig struct {
	Suffixes []string `yaml:"suffixes"`
	Patterns []string `yaml:"patterns"` // lower-case substrings of the file name
}

// AnalyzeConfig holds analysis settings
type AnalyzeConfig struct {
	TopN int `yaml:"top_n"`
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	DebounceSeconds int `yaml:"debounce_seconds"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields missing from the file keep their defaults
	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file while holding its lock file
func Save(config *Config, configPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := filelock.WriteLocked(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WriteRaw writes already rendered config text, e.g. the commented example,
// under the same lock as Save
func WriteRaw(configPath string, data []byte) error {
	return filelock.WriteLocked(configPath, data, 0644)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}

	if !utils.ValidHashAlgorithm(c.HashAlgorithm) {
		return fmt.Errorf("unsupported hash algorithm: %s", c.HashAlgorithm)
	}

	if _, err := c.CategoryTable(1); err != nil {
		return fmt.Errorf("invalid categories: %w", err)
	}

	// Validate exclude patterns (glob syntax)
	for _, pattern := range c.ExcludePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}

	// Validate protected paths are absolute
	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.Organize.MaxSuffixAttempts < 0 {
		return fmt.Errorf("max suffix attempts must be >= 0")
	}

	if _, err := utils.ParseSize(c.Duplicates.MinSize); err != nil {
		return fmt.Errorf("invalid duplicates min_size: %w", err)
	}

	for _, suffix := range c.Sweep.Suffixes {
		if suffix == "" {
			return fmt.Errorf("sweep suffixes must not be empty")
		}
	}
	for _, pattern := range c.Sweep.Patterns {
		if pattern == "" || pattern != strings.ToLower(pattern) {
			return fmt.Errorf("sweep pattern must be non-empty lower case: %q", pattern)
		}
	}

	if c.Analyze.TopN < 0 {
		return fmt.Errorf("analyze top_n must be >= 0")
	}

	if c.Watch.DebounceSeconds < 0 {
		return fmt.Errorf("watch debounce must be >= 0")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}

	return nil
}

// CategoryTable builds the classifier table described by the config
func (c *Config) CategoryTable(version int64) (*classifier.Table, error) {
	cats := make([]classifier.Category, len(c.Categories))
	for i, cc := range c.Categories {
		cats[i] = classifier.Category{Name: cc.Name, Extensions: cc.Extensions}
	}
	return classifier.NewTable(version, cats)
}

// SetCategoryTable replaces the configured categories with t
func (c *Config) SetCategoryTable(t *classifier.Table) {
	cats := t.Categories()
	c.Categories = make([]CategoryConfig, len(cats))
	for i, cat := range cats {
		c.Categories[i] = CategoryConfig{Name: cat.Name, Extensions: cat.Extensions}
	}
}

// MinDuplicateSize returns duplicates.min_size in bytes
func (c *Config) MinDuplicateSize() int64 {
	n, err := utils.ParseSize(c.Duplicates.MinSize)
	if err != nil {
		return 0
	}
	return n
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "fileflow")
	return filepath.Join(configDir, "config.yaml"), nil
}
