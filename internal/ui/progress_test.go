package ui

import (
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{64 * 1024, "64.0 KiB"},
		{6*1024*1024 + 100, "6.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTransferProgressRender(t *testing.T) {
	p := TransferProgress{
		ChunkIndex:     11,
		ChunksTotal:    97,
		BytesTotal:     100,
		BytesRemaining: 50,
		Attempt:        1,
	}
	line := p.Render()
	if !strings.Contains(line, "chunk 12/97") {
		t.Errorf("progress line missing chunk counter: %q", line)
	}

	p.Retrying = true
	p.Attempt = 2
	if !strings.Contains(p.Render(), "attempt 2") {
		t.Error("retry line missing attempt marker")
	}
}
