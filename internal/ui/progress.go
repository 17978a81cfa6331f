package ui

import (
	"fmt"
	"strings"
)

// TransferProgress is one renderable line of transfer state. The CLI
// maps orchestrator progress events onto it; ui stays unaware of where
// the numbers come from.
type TransferProgress struct {
	ChunkIndex     int
	ChunksTotal    int
	BytesTotal     int64
	BytesRemaining int64
	Attempt        int
	Retrying       bool
}

// barWidth is the character width of the progress bar body.
const barWidth = 30

// Render returns a single status line:
//
//	[████████──────] chunk 12/97  5.4 MiB remaining
//
// Retried chunks get an attempt marker so a flaky link is visible
// without reading the logs.
func (p TransferProgress) Render() string {
	done := p.BytesTotal - p.BytesRemaining
	filled := 0
	if p.BytesTotal > 0 {
		filled = int(done * barWidth / p.BytesTotal)
	}
	if filled > barWidth {
		filled = barWidth
	}

	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("─", barWidth-filled) + "]"

	line := fmt.Sprintf("%s chunk %d/%d  %s remaining",
		bar, p.ChunkIndex+1, p.ChunksTotal, FormatBytes(p.BytesRemaining))

	if p.Retrying {
		return ProgressLabelStyle.Render(line) + " " +
			ProgressRetryStyle.Render(fmt.Sprintf("%s attempt %d", RetryMarker, p.Attempt))
	}
	return ProgressLabelStyle.Render(line)
}

// RenderTransferDone returns the final progress line after the last chunk.
func RenderTransferDone(chunks int, bytes int64) string {
	return ProgressLabelStyle.Render(
		fmt.Sprintf("[%s] ", strings.Repeat("█", barWidth))) +
		ProgressDoneStyle.Render(
			fmt.Sprintf("%s %d chunks, %s written", SuccessMarker, chunks, FormatBytes(bytes)))
}

// FormatBytes renders a byte count in binary units.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
