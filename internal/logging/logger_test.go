package logging

import (
	"bytes"
	"encoding/hex"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHexDump(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, ""},
		{"short", []byte{0xde, 0xad, 0xbe, 0xef}, "deadbeef"},
		{"exactly 256", bytes.Repeat([]byte{0xab}, 256), hex.EncodeToString(bytes.Repeat([]byte{0xab}, 256))},
		{"truncated past 256", bytes.Repeat([]byte{0xab}, 300), hex.EncodeToString(bytes.Repeat([]byte{0xab}, 256)) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hexDump(tt.data); got != tt.want {
				t.Errorf("hexDump = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestASCIIDumpMasksNonPrintable(t *testing.T) {
	got := asciiDump([]byte("chunk\x00\x01 ok\x7f"))
	want := "chunk.. ok."
	if got != want {
		t.Errorf("asciiDump = %q, want %q", got, want)
	}
}

func TestLogChunkBytesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogChunkBytes(logger, "staged bytes at checksum mismatch", 7, []byte{0x01, 0x02, 0x03})

	entries := logs.FilterMessage("staged bytes at checksum mismatch").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["chunk_index"] != int64(7) {
		t.Errorf("chunk_index = %v, want 7", fields["chunk_index"])
	}
	if fields["length"] != int64(3) {
		t.Errorf("length = %v, want 3", fields["length"])
	}
	if fields["hex"] != "010203" {
		t.Errorf("hex = %v, want 010203", fields["hex"])
	}
}

func TestLogRawBytesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogRawBytes(logger, "read-back bytes at mismatch", []byte("ok"))

	entries := logs.FilterMessage("read-back bytes at mismatch").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["ascii"] != "ok" {
		t.Errorf("ascii = %v, want ok", fields["ascii"])
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv failed: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil")
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when the level env var is unset")
	}
}

func TestInitializeLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			if err := Initialize(level); err != nil {
				t.Fatalf("Initialize(%q) failed: %v", level, err)
			}
			if GetLogger() == nil {
				t.Fatal("GetLogger returned nil")
			}
		})
	}
}
