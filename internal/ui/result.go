package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
)

// Result represents the final box printed after a transfer attempt.
type Result struct {
	Type            ResultType
	Title           string            // e.g., "Image transfer complete"
	Details         map[string]string // Key-value details to display
	Error           error             // Error (for failure results)
	Troubleshooting []string          // Troubleshooting tips (for failure results)
	DebuggerOutput  []string          // Raw debugger lines worth surfacing
	Width           int               // Terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details map[string]string) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail adds a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	if r.Details == nil {
		r.Details = make(map[string]string)
	}
	r.Details[key] = value
	return r
}

// SetDebuggerOutput attaches raw debugger lines to a failure box.
func (r *Result) SetDebuggerOutput(lines []string) *Result {
	r.DebuggerOutput = lines
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	if r.Type == ResultFailure {
		return r.renderFailure()
	}
	return r.renderSuccess()
}

func (r *Result) detailLines() []string {
	keys := make([]string, 0, len(r.Details))
	for key := range r.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		keyStyled := ResultKeyStyle.Render(fmt.Sprintf("   %s:", key))
		valueStyled := ResultValueStyle.Render(r.Details[key])
		lines = append(lines, keyStyled+" "+valueStyled)
	}
	return lines
}

func (r *Result) renderSuccess() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string
	titleLine := SuccessTitleStyle.Render(fmt.Sprintf("   %s  SUCCESS  -  %s", SuccessMarker, r.Title))
	lines = append(lines, "", titleLine, "")
	lines = append(lines, r.detailLines()...)
	lines = append(lines, "")

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

func (r *Result) renderFailure() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string
	titleLine := ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  -  %s", FailureMarker, r.Title))
	lines = append(lines, "", titleLine, "")

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}

	lines = append(lines, r.detailLines()...)

	if len(r.DebuggerOutput) > 0 {
		lines = append(lines, r.renderDebuggerOutputBox(width), "")
	}

	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.renderTroubleshootingBox(width), "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// renderDebuggerOutputBox shows the raw console lines behind a failure.
func (r *Result) renderDebuggerOutputBox(width int) string {
	var lines []string
	lines = append(lines, DebuggerOutputTitleStyle.Render("Debugger output:"), "")
	for _, ln := range r.DebuggerOutput {
		lines = append(lines, DebuggerOutputContentStyle.Render("  "+ln))
	}

	return DebuggerOutputBoxStyle(width - 8).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// renderTroubleshootingBox renders the inner troubleshooting box
func (r *Result) renderTroubleshootingBox(width int) string {
	var lines []string
	lines = append(lines, TroubleshootingTitleStyle.Render("Troubleshooting:"), "")
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	innerWidth := width - 12
	if innerWidth < 40 {
		innerWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(innerWidth).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
