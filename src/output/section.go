package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// Frame geometry. Every section line starts at the same column and the
// horizontal rules all run to the same right edge.
const (
	sectionIndent = "  "
	sectionWidth  = 62
)

// Section renders a box-drawing framed block for command summaries.
type Section struct {
	w     io.Writer
	color bool
}

// NewSection opens a section by writing its header rule. A non-zero elapsed
// appears right-aligned in the rule.
func NewSection(w io.Writer, name string, elapsed time.Duration, color bool) *Section {
	s := &Section{w: w, color: color}

	header := sectionHeader(name, elapsed)
	if s.color {
		header = "\033[2;36m" + header + "\033[0m" // dim cyan
	}
	fmt.Fprintf(w, "\n%s%s\n", sectionIndent, header)
	return s
}

// sectionHeader builds: ── Name ─────────────────────── elapsed ──
func sectionHeader(name string, elapsed time.Duration) string {
	left := "── " + name + " "
	right := "──"
	if elapsed > 0 {
		right = " " + formatElapsed(elapsed) + " ──"
	}

	fill := sectionWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if fill < 1 {
		fill = 1
	}
	return left + strings.Repeat("─", fill) + right
}

// Row writes one framed content line.
func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "%s│ %s\n", sectionIndent, fmt.Sprintf(format, args...))
}

// Status writes a framed row carrying a status icon and detail text.
func (s *Section) Status(name, status, detail string) {
	s.Row("%-10s %s  %s", name, StatusIcon(status, s.color), detail)
}

// Separator writes a rule between row groups.
func (s *Section) Separator() {
	fmt.Fprintf(s.w, "%s├%s\n", sectionIndent, strings.Repeat("─", sectionWidth-1))
}

// Close ends the section with its footer rule.
func (s *Section) Close() {
	fmt.Fprintf(s.w, "%s└%s\n", sectionIndent, strings.Repeat("─", sectionWidth-1))
}

// StatusIcon returns the glyph for a run status, tinted when color is on.
func StatusIcon(status string, color bool) string {
	icon, tint := "⊘", colorYellow
	switch status {
	case "success":
		icon, tint = "✓", colorGreen
	case "failed":
		icon, tint = "✗", colorRed
	}
	if !color {
		return icon
	}
	return tint + icon + colorReset
}

// Dimmed renders de-emphasized text when color is on.
func Dimmed(text string, color bool) string {
	if color {
		return colorGray + text + colorReset
	}
	return text
}

// KV is one row of the run context block.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints the job identity rows ahead of any grouped output.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	width := 0
	for _, e := range kv {
		if len(e.Key) > width {
			width = len(e.Key)
		}
	}
	fmt.Fprintln(w)
	for _, e := range kv {
		fmt.Fprintf(w, "%s%-*s  %s\n", sectionIndent, width, e.Key, e.Value)
	}
}

// formatElapsed renders a duration the way section headers show it.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
