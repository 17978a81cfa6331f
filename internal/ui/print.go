package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// PrintCommandHeader renders and prints a command header banner.
func PrintCommandHeader(title, command string, params map[string]string) {
	fmt.Println(NewHeader(title, command, params).Render())
	fmt.Println()
}

// PrintSuccess renders and prints a success result box.
func PrintSuccess(title string, details map[string]string) {
	fmt.Println()
	fmt.Println(NewSuccessResult(title, details).Render())
}

// PrintFailure renders and prints a failure result box.
func PrintFailure(title string, err error, troubleshooting []string) {
	fmt.Println()
	fmt.Println(NewFailureResult(title, err, troubleshooting).Render())
}

// PrintPleaseWait prints a muted waiting line before a long operation.
func PrintPleaseWait(action, note string) {
	line := ProgressLabelStyle.Render(action + "...")
	if note != "" {
		line += " " + lipgloss.NewStyle().Foreground(MutedColor).Italic(true).Render("("+note+")")
	}
	fmt.Println(line)
	fmt.Println()
}

// PrintDebuggerOutput prints raw debugger console lines in a box.
func PrintDebuggerOutput(lines []string) {
	if len(lines) == 0 {
		return
	}
	var body []string
	body = append(body, DebuggerOutputTitleStyle.Render("Debugger output:"), "")
	for _, ln := range lines {
		body = append(body, DebuggerOutputContentStyle.Render("  "+ln))
	}
	box := DebuggerOutputBoxStyle(GetTerminalWidth()).Render(joinLines(body))
	fmt.Println()
	fmt.Println(box)
}

func joinLines(lines []string) string {
	out := ""
	for i, ln := range lines {
		if i > 0 {
			out += "\n"
		}
		out += ln
	}
	return out
}
