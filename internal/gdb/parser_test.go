package gdb

import (
	"errors"
	"testing"
)

func mustParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(DefaultGrammar())
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	return p
}

func TestNewParserRejectsBadPatterns(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Grammar)
	}{
		{"invalid address range regex", func(g *Grammar) { g.AddressRange = `\((0x[` }},
		{"address range without captures", func(g *Grammar) { g.AddressRange = `0x[0-9a-f]+ to 0x[0-9a-f]+` }},
		{"invalid call result regex", func(g *Grammar) { g.CallResult = `\$\d+ = (` }},
		{"call result without capture", func(g *Grammar) { g.CallResult = `\$\d+ = \d+` }},
		{"invalid failure regex", func(g *Grammar) { g.Failures = []string{`(`} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DefaultGrammar()
			tt.mutate(&g)
			if _, err := NewParser(g); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseAddressRange(t *testing.T) {
	p := mustParser(t)

	resp := &Response{
		Command: "restore /tmp/chunk_0000.bin binary 0x200b76a8",
		Lines: []string{
			"Restoring binary file /tmp/chunk_0000.bin into memory (0x200b76a8 to 0x200c76a8)",
		},
		Complete: true,
	}

	start, end, err := p.ParseAddressRange(resp)
	if err != nil {
		t.Fatalf("ParseAddressRange failed: %v", err)
	}
	if start != 0x200b76a8 {
		t.Errorf("start = %#x, want 0x200b76a8", start)
	}
	if end != 0x200c76a8 {
		t.Errorf("end = %#x, want 0x200c76a8", end)
	}
}

func TestParseAddressRangeSkipsNoise(t *testing.T) {
	p := mustParser(t)

	resp := &Response{
		Command: "restore chunk.bin binary 0x20010000",
		Lines: []string{
			"some unrelated chatter",
			"Restoring binary file chunk.bin into memory (0x20010000 to 0x20010400)",
			"more chatter",
		},
	}

	start, end, err := p.ParseAddressRange(resp)
	if err != nil {
		t.Fatalf("ParseAddressRange failed: %v", err)
	}
	if start != 0x20010000 || end != 0x20010400 {
		t.Errorf("range = (%#x, %#x), want (0x20010000, 0x20010400)", start, end)
	}
}

func TestParseAddressRangeAbsent(t *testing.T) {
	p := mustParser(t)

	resp := &Response{
		Command: "restore chunk.bin binary 0x20010000",
		Lines:   []string{"Restored something, format changed"},
	}

	_, _, err := p.ParseAddressRange(resp)
	if err == nil {
		t.Fatal("expected ParseError, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Field != "address range" {
		t.Errorf("ParseError.Field = %q, want %q", parseErr.Field, "address range")
	}
}

func TestParseCallResult(t *testing.T) {
	p := mustParser(t)

	tests := []struct {
		name string
		line string
		want uint32
	}{
		{"typical call result", "$103 = 8199517", 8199517},
		{"first history entry", "$1 = 0", 0},
		{"max uint32", "$7 = 4294967295", 4294967295},
		{"signed rendering of high bit pattern", "$9 = -1", 4294967295},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{Command: "call copy_to_flash(0, 1024)", Lines: []string{tt.line}}
			got, err := p.ParseCallResult(resp)
			if err != nil {
				t.Fatalf("ParseCallResult failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCallResult(%q) = %d, want %d", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCallResultAbsent(t *testing.T) {
	p := mustParser(t)

	resp := &Response{
		Command: "call copy_to_flash(0, 1024)",
		Lines:   []string{"the call completed but printed nothing useful"},
	}

	_, err := p.ParseCallResult(resp)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestParseCallResultOutOfRange(t *testing.T) {
	p := mustParser(t)

	resp := &Response{
		Command: "call copy_to_flash(0, 1024)",
		Lines:   []string{"$2 = 4294967296"},
	}

	_, err := p.ParseCallResult(resp)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError for 33-bit value, got %T: %v", err, err)
	}
}

func TestDetectFailure(t *testing.T) {
	p := mustParser(t)

	tests := []struct {
		name     string
		lines    []string
		wantFail bool
	}{
		{"clean restore", []string{"Restoring binary file x into memory (0x0 to 0x4)"}, false},
		{"memory access", []string{"Cannot access memory at address 0x90000000"}, true},
		{"connection refused", []string{"localhost:3333: Connection refused."}, true},
		{"remote comms", []string{"Remote communication error.  Target disconnected."}, true},
		{"missing symbol", []string{`No symbol "copy_to_flash" in current context.`}, true},
		{"missing file", []string{"/tmp/chunk.bin: No such file or directory."}, true},
		{"empty response", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{Command: "test", Lines: tt.lines}
			err := p.DetectFailure(resp)
			if tt.wantFail && err == nil {
				t.Error("expected ExecutionError, got nil")
			}
			if !tt.wantFail && err != nil {
				t.Errorf("unexpected failure: %v", err)
			}
			if tt.wantFail {
				var execErr *ExecutionError
				if !errors.As(err, &execErr) {
					t.Errorf("expected *ExecutionError, got %T", err)
				}
			}
		})
	}
}

func TestParseErrorDistinctFromExecutionError(t *testing.T) {
	p := mustParser(t)

	// A response with no failure line but also no matching grammar:
	// DetectFailure must pass and parsing must fail, so the caller can
	// tell a format drift from a command failure.
	resp := &Response{
		Command: "restore chunk.bin binary 0x20010000",
		Lines:   []string{"Wrote 1024 bytes"},
	}

	if err := p.DetectFailure(resp); err != nil {
		t.Fatalf("DetectFailure should not flag this output: %v", err)
	}

	_, _, err := p.ParseAddressRange(resp)
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		t.Error("parse failure must not be an ExecutionError")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T", err)
	}
}
