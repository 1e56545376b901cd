package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Printer renders CLI output. Colors are applied only when the output is a
// terminal that supports them; NO_COLOR and TERM=dumb disable them.
type Printer struct {
	out     io.Writer
	colored bool
	profile termenv.Profile

	success *color.Color
	failure *color.Color
	warning *color.Color
	muted   *color.Color
	header  *color.Color
}

// NewPrinter creates a printer writing to the given stream. A nil writer
// selects stdout.
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}

	colored := detectColorSupport(out)
	if !colored {
		color.NoColor = true
	}

	return &Printer{
		out:     out,
		colored: colored,
		profile: termenv.ColorProfile(),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow),
		muted:   color.New(color.FgHiBlack),
		header:  color.New(color.FgCyan, color.Bold),
	}
}

func detectColorSupport(out io.Writer) bool {
	file, isFile := out.(*os.File)
	if !isFile {
		return false
	}
	if !isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd()) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// Success prints a success line
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.success.Sprintf(format, args...))
}

// Error prints an error line
func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.failure.Sprintf(format, args...))
}

// Warn prints a warning line
func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.warning.Sprintf(format, args...))
}

// Info prints a plain line
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Muted prints a de-emphasized line
func (p *Printer) Muted(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.muted.Sprintf(format, args...))
}

// Header prints a section header line
func (p *Printer) Header(text string) {
	fmt.Fprintln(p.out, p.header.Sprint(text))
}

// FormatBytes renders a byte count in a human-readable unit
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
