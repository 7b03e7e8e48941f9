package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fenilsonani/fileflow/internal/ui/styles"
	"github.com/taigrr/colorhash"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a --output value
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	case "":
		return FormatSummary, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want summary, table, json or yaml)", s)
	}
}

// Reporter renders engine results
type Reporter struct {
	writer   io.Writer
	format   OutputFormat
	renderer *lipgloss.Renderer
}

// New creates a new Reporter. Colors are only emitted when writer is a
// terminal.
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer:   writer,
		format:   format,
		renderer: lipgloss.NewRenderer(writer),
	}
}

// Format returns the output format
func (r *Reporter) Format() OutputFormat {
	return r.format
}

// Structured reports whether the format is machine readable
func (r *Reporter) Structured() bool {
	return r.format == FormatJSON || r.format == FormatYAML
}

// render dispatches to the text renderers or encodes view
func (r *Reporter) render(view any, summary, tbl func() error) error {
	switch r.format {
	case FormatJSON:
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	case FormatYAML:
		encoder := yaml.NewEncoder(r.writer)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(view)
	case FormatSummary:
		return summary()
	case FormatTable:
		return tbl()
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// printf writes to the output, ignoring write errors like fmt.Printf does
func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.writer, format, args...)
}

func (r *Reporter) title(s string) {
	r.printf("%s\n", r.renderer.NewStyle().Bold(true).Foreground(styles.Primary).Render("=== "+s+" ==="))
}

func (r *Reporter) dim(s string) string {
	return r.renderer.NewStyle().Foreground(styles.TextDim).Render(s)
}

func (r *Reporter) warn(s string) string {
	return r.renderer.NewStyle().Foreground(styles.Warning).Bold(true).Render(s)
}

func (r *Reporter) danger(s string) string {
	return r.renderer.NewStyle().Foreground(styles.Danger).Bold(true).Render(s)
}

func (r *Reporter) success(s string) string {
	return r.renderer.NewStyle().Foreground(styles.Success).Bold(true).Render(s)
}

// category renders a category name in its stable color
func (r *Reporter) category(name string) string {
	return r.renderer.NewStyle().Foreground(CategoryColor(name)).Render(name)
}

// table renders rows below headers with the shared border style
func (r *Reporter) table(headers []string, rows [][]string) {
	header := r.renderer.NewStyle().Bold(true).Foreground(styles.Secondary).Padding(0, 1)
	cell := r.renderer.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.renderer.NewStyle().Foreground(styles.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	r.printf("%s\n", t.Render())
}

// categoryPalette holds the colors categories are hashed onto
var categoryPalette = []lipgloss.Color{
	"#7C3AED", "#10B981", "#F59E0B", "#3B82F6", "#EC4899",
	"#14B8A6", "#F97316", "#8B5CF6", "#84CC16", "#06B6D4",
}

// CategoryColor returns a color that stays the same for a category name
// across runs and machines
func CategoryColor(name string) lipgloss.Color {
	i := colorhash.HashString(name) % len(categoryPalette)
	if i < 0 {
		i = -i
	}
	return categoryPalette[i]
}

// shortenPath keeps the tail of long paths
func shortenPath(path string, width int) string {
	if len(path) <= width || width < 4 {
		return path
	}
	return "..." + path[len(path)-(width-3):]
}

// SaveToFile renders a report into path through fn
func SaveToFile(path string, format OutputFormat, fn func(*Reporter) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return fn(New(file, format))
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}
