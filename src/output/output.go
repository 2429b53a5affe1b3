package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pipewright/pipewright/src/secrets"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Printer formats and writes secret scan findings.
type Printer struct {
	Writer io.Writer
	Color  bool
}

// NewPrinter creates a printer writing to stderr with color auto-detection.
// Findings go to stderr so the rendered pipeline document on stdout stays
// machine-readable.
func NewPrinter() *Printer {
	return &Printer{
		Writer: os.Stderr,
		Color:  UseColor(),
	}
}

// Print outputs findings grouped by scanned file, returns true if any
// findings exist.
func (p *Printer) Print(findings []secrets.Finding) bool {
	if len(findings) == 0 {
		return false
	}

	// Group by target
	grouped := make(map[string][]secrets.Finding)
	for _, f := range findings {
		grouped[f.Target] = append(grouped[f.Target], f)
	}

	// Sort targets
	targets := make([]string, 0, len(grouped))
	for t := range grouped {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	for _, target := range targets {
		ff := grouped[target]

		// Sort by line number within target
		sort.Slice(ff, func(i, j int) bool {
			if ff[i].Line != ff[j].Line {
				return ff[i].Line < ff[j].Line
			}
			return ff[i].Rule < ff[j].Rule
		})

		fmt.Fprintf(p.Writer, "\n%s\n", p.colorize(target, colorBold))

		for _, f := range ff {
			fmt.Fprintf(p.Writer, "  %s %s %s %s\n",
				p.colorize(fmt.Sprintf("%d", f.Line), colorGray),
				p.leakTag(),
				p.colorize(f.Rule, colorCyan),
				f.Description,
			)
		}
	}

	return true
}

// Summary prints a final summary line.
func (p *Printer) Summary(findings, targetsScanned int) {
	fmt.Fprintf(p.Writer, "\n%s\n", ScanSummaryLine(findings, targetsScanned, p.Color))
}

// ScanSummaryLine returns a one-line scan summary, optionally colored.
func ScanSummaryLine(findings, targetsScanned int, color bool) string {
	if findings == 0 {
		return fmt.Sprintf("no secrets detected in %d scanned files", targetsScanned)
	}
	count := fmt.Sprintf("%d potential leak(s)", findings)
	if color {
		count = colorRed + count + colorReset
	}
	return fmt.Sprintf("%s in %d scanned files", count, targetsScanned)
}

func (p *Printer) leakTag() string {
	if p.Color {
		return colorRed + "LEAK" + colorReset
	}
	return "LEAK"
}

func (p *Printer) colorize(text, color string) string {
	if !p.Color {
		return text
	}
	return color + text + colorReset
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection. CI log viewers
// render ANSI, so color stays on there even without a tty.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}
