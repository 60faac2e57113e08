package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wzshiming/ctc"
)

type Output struct {
	stdout io.Writer
	stderr io.Writer
}

func NewOutput(stdout, stderr io.Writer) *Output {
	return &Output{
		stdout: stdout,
		stderr: stderr,
	}
}

// Header prints a formatted section header
func (o *Output) Header(text string) {
	fmt.Fprintf(o.stdout, "\n%s\n", strings.Repeat("=", len(text)))
	fmt.Fprintf(o.stdout, "%s\n", text)
	fmt.Fprintf(o.stdout, "%s\n\n", strings.Repeat("=", len(text)))
}

// Section prints a section title
func (o *Output) Section(text string) {
	fmt.Fprintf(o.stdout, "\n%s\n%s\n", text, strings.Repeat("-", len(text)))
}

// Info prints an informational message
func (o *Output) Info(format string, args ...any) {
	fmt.Fprintf(o.stdout, format+"\n", args...)
}

// Success prints a success message with checkmark
func (o *Output) Success(format string, args ...any) {
	fmt.Fprintf(o.stdout, "✓ "+format+"\n", args...)
}

// Error prints an error message
func (o *Output) Error(format string, args ...any) {
	fmt.Fprintf(o.stderr, o.DotRed()+" "+format+"\n", args...)
}

// Warning prints a warning message
func (o *Output) Warning(format string, args ...any) {
	fmt.Fprintf(o.stdout, "⚠ "+format+"\n", args...)
}

// DryRunHeader prints dry-run mode header
func (o *Output) DryRunHeader(repo string) {
	o.Header(fmt.Sprintf("DRY-RUN: %s", repo))
	o.Info("This would publish the following:")
}

// RunStarted prints publish run start information
func (o *Output) RunStarted(repo, runID string) {
	o.Header(fmt.Sprintf("Repository: %s", repo))
	o.Info("Run ID: %s", runID)
	o.Info("Started: %s", time.Now().Format(time.RFC3339))
}

// RunCompleted prints publish run completion summary
func (o *Output) RunCompleted(duration time.Duration) {
	o.Success("Run completed successfully")
	o.Info("Duration: %s", duration)
}

// RunFailed prints publish run failure information
func (o *Output) RunFailed(storage string, err error) {
	o.Error("Run failed")
	if storage != "" {
		o.Info("Failed storage: %s", storage)
	}
	o.Info("Error: %v", err)
}

func (o *Output) DotRed() string {
	return fmt.Sprint(ctc.ForegroundRed, "•", ctc.Reset)
}
