package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fenilsonani/fileflow/internal/ui/styles"
)

// Confirm asks a yes/no question on out and reads the answer from in.
// Anything other than y or yes, including EOF, is a no.
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s %s ", styles.WarningStyle.Render(question), styles.DimStyle.Render("[y/N]:"))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
