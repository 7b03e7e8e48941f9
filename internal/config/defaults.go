package config

import (
	"github.com/fenilsonani/fileflow/internal/classifier"
)

// Default sweep rules
var (
	DefaultSweepSuffixes = []string{".tmp", ".temp", ".bak", ".log", "~", ".swp", ".cache", ".crdownload", ".part"}
	DefaultSweepPatterns = []string{"cache", "temp", "tmp", "backup"}
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	cfg := &Config{
		Workers:         4,
		HashAlgorithm:   "md5",
		DryRun:          false,
		Verbose:         false,
		ExcludePatterns: []string{},
		ProtectedPaths:  []string{},
		Organize: OrganizeConfig{
			MaxSuffixAttempts: 10000,
		},
		Duplicates: DuplicatesConfig{
			MinSize: "0",
		},
		Sweep: SweepConfig{
			Suffixes: append([]string(nil), DefaultSweepSuffixes...),
			Patterns: append([]string(nil), DefaultSweepPatterns...),
		},
		Analyze: AnalyzeConfig{
			TopN: 10,
		},
		Watch: WatchConfig{
			DebounceSeconds: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
	cfg.SetCategoryTable(classifier.Default())
	return cfg
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# FileFlow Configuration File
# Location: ~/.config/fileflow/config.yaml

# Number of concurrent workers per phase
workers: 4

# Digest used for duplicate detection: md5, sha256 or blake3
hash_algorithm: md5

# Dry-run mode - plan moves and deletions without touching files
dry_run: false

verbose: false

# Ordered category table. The first category listing an extension wins.
# Files with an unlisted extension go to "Others".
categories:
  - name: Images
    extensions: [.jpg, .jpeg, .png, .gif, .bmp, .webp, .heic, .svg, .tiff, .ico]
  - name: Documents
    extensions: [.pdf, .doc, .docx, .txt, .rtf, .odt, .xls, .xlsx, .ppt, .pptx]

# Glob patterns matched against file and directory names; matches are not scanned
exclude_patterns:
  - "*.keep"
  - ".git"

# Extra paths fileflow must never organize or delete from
protected_paths: []

organize:
  max_suffix_attempts: 10000
  manifest_dir: ""   # write a deletion manifest (one line per removed file) here when set

duplicates:
  min_size: "0"      # e.g. "1KB" to ignore tiny files

sweep:
  suffixes: [.tmp, .temp, .bak, .log, "~", .swp, .cache, .crdownload, .part]
  patterns: [cache, temp, tmp, backup]

analyze:
  top_n: 10

watch:
  debounce_seconds: 2

log:
  level: info        # debug, info, warn, error
  file: ""           # log file path; empty logs to stderr
`
}
