// Package ui provides terminal output for the supplements CLI.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// UI writes human-readable or JSON output.
type UI struct {
	out      io.Writer
	err      io.Writer
	noColor  bool
	jsonMode bool
	verbose  bool
}

// New creates a UI writing to out and err.
func New(out, err io.Writer, noColor, jsonMode, verbose bool) *UI {
	if noColor {
		color.NoColor = true
	}
	return &UI{out: out, err: err, noColor: noColor, jsonMode: jsonMode, verbose: verbose}
}

// JSONMode reports whether output is machine-readable.
func (u *UI) JSONMode() bool { return u.jsonMode }

// Out is the primary output writer.
func (u *UI) Out() io.Writer { return u.out }

// Err is the diagnostics writer; progress and spinners go here.
func (u *UI) Err() io.Writer { return u.err }

// JSON encodes v as indented JSON.
func (u *UI) JSON(v any) error {
	enc := json.NewEncoder(u.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (u *UI) printf(w io.Writer, c *color.Color, prefix, format string, args ...any) {
	if u.jsonMode {
		return
	}
	line := prefix + " " + fmt.Sprintf(format, args...) + "\n"
	if u.noColor {
		fmt.Fprint(w, line)
		return
	}
	c.Fprint(w, line)
}

// Success prints a success message.
func (u *UI) Success(format string, args ...any) {
	u.printf(u.out, color.New(color.FgGreen), "✓", format, args...)
}

// Error prints an error message.
func (u *UI) Error(format string, args ...any) {
	u.printf(u.err, color.New(color.FgRed), "✗", format, args...)
}

// Warning prints a warning message.
func (u *UI) Warning(format string, args ...any) {
	u.printf(u.out, color.New(color.FgYellow), "⚠", format, args...)
}

// Info prints an info message.
func (u *UI) Info(format string, args ...any) {
	u.printf(u.out, color.New(color.FgCyan), "ℹ", format, args...)
}

// Debug prints only in verbose mode.
func (u *UI) Debug(format string, args ...any) {
	if !u.verbose {
		return
	}
	u.printf(u.err, color.New(color.FgHiBlack), "·", format, args...)
}

// Section prints an underlined header.
func (u *UI) Section(title string) {
	if u.jsonMode {
		return
	}
	bold := color.New(color.Bold)
	if u.noColor {
		fmt.Fprintf(u.out, "\n%s\n", title)
	} else {
		bold.Fprintf(u.out, "\n%s\n", title)
	}
	fmt.Fprintf(u.out, "%s\n", strings.Repeat("=", len([]rune(title))))
}

// KeyValue prints an indented key-value pair, skipping empty values.
func (u *UI) KeyValue(key, value string) {
	if u.jsonMode || value == "" {
		return
	}
	fmt.Fprintf(u.out, "  %s: %s\n", key, value)
}

// List prints bullet items.
func (u *UI) List(items []string) {
	if u.jsonMode {
		return
	}
	for _, it := range items {
		fmt.Fprintf(u.out, "  • %s\n", it)
	}
}

// Paragraphs prints text blocks separated by blank lines.
func (u *UI) Paragraphs(paras []string) {
	if u.jsonMode {
		return
	}
	fmt.Fprintln(u.out, strings.Join(paras, "\n\n"))
}

// Table prints rows aligned under headers.
func (u *UI) Table(headers []string, rows [][]string) {
	if u.jsonMode {
		return
	}
	w := tabwriter.NewWriter(u.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	sep := make([]string, len(headers))
	for i, h := range headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// Tier colours an evidence tier label.
func (u *UI) Tier(tier, label string) string {
	if u.noColor {
		return label
	}
	switch tier {
	case "strong":
		return color.GreenString(label)
	case "moderate":
		return color.YellowString(label)
	default:
		return color.HiBlackString(label)
	}
}
