// Package ui prints user-facing status lines. Diagnostic logging stays with
// slog; everything the user is meant to read goes through a Reporter.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors (ANSI 16 so they follow the terminal palette).
var (
	colorSuccess = lipgloss.Color("2")
	colorDanger  = lipgloss.Color("1")
	colorWarning = lipgloss.Color("3")
	colorInfo    = lipgloss.Color("6")
)

// Reporter writes styled status lines. It is safe for concurrent use.
type Reporter struct {
	mu    sync.Mutex
	out   io.Writer
	err   io.Writer
	quiet bool

	ok, danger, warn, info lipgloss.Style
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithQuiet suppresses informational lines; failures are still printed.
func WithQuiet(quiet bool) Option {
	return func(r *Reporter) {
		r.quiet = quiet
	}
}

// WithNoColor disables styling.
func WithNoColor(noColor bool) Option {
	return func(r *Reporter) {
		if noColor {
			plain := lipgloss.NewStyle()
			r.ok, r.danger, r.warn, r.info = plain, plain, plain, plain
		}
	}
}

// NewReporter writes normal output to out and failures to errOut.
func NewReporter(out, errOut io.Writer, opts ...Option) *Reporter {
	renderer := lipgloss.NewRenderer(out)

	r := &Reporter{
		out:    out,
		err:    errOut,
		ok:     renderer.NewStyle().Foreground(colorSuccess).Bold(true),
		danger: renderer.NewStyle().Foreground(colorDanger).Bold(true),
		warn:   renderer.NewStyle().Foreground(colorWarning),
		info:   renderer.NewStyle().Foreground(colorInfo),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Discard returns a Reporter that prints nothing.
func Discard() *Reporter {
	return NewReporter(io.Discard, io.Discard, WithNoColor(true))
}

// Info prints an informational line.
func (r *Reporter) Info(format string, args ...any) {
	if r.quiet {
		return
	}

	r.println(r.out, r.info.Render(fmt.Sprintf(format, args...)))
}

// OK prints a success line.
func (r *Reporter) OK(format string, args ...any) {
	if r.quiet {
		return
	}

	r.println(r.out, r.ok.Render("OK")+" "+fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (r *Reporter) Warn(format string, args ...any) {
	r.println(r.err, r.warn.Render("WARN")+" "+fmt.Sprintf(format, args...))
}

// Failed reports a check step that exited non-zero.
func (r *Reporter) Failed(step string, exitCode int) {
	r.println(r.err, r.danger.Render("FAILED")+fmt.Sprintf(" [%s] exit code %d", step, exitCode))
}

// Error reports a categorised failure followed by its hint.
func (r *Reporter) Error(category, message, hint string) {
	r.println(r.err, r.danger.Render("ERROR")+fmt.Sprintf(" [%s] %s", category, message))

	if hint != "" {
		r.Hint(hint)
	}
}

// Hint prints a remediation hint.
func (r *Reporter) Hint(hint string) {
	r.println(r.err, r.warn.Render("Hint:")+" "+hint)
}

// Output echoes raw tool output, ensuring it ends with a newline.
func (r *Reporter) Output(text string) {
	if text == "" {
		return
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = io.WriteString(r.out, text)
}

func (r *Reporter) println(w io.Writer, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintln(w, line)
}
