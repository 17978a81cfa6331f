package image

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestStoreStageRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	chunk := Chunk{
		Index:  3,
		Offset: 3 * 256,
		Data:   []byte{0x01, 0x02, 0xfe, 0xff, 0x00, 0x7f},
	}

	path, err := store.Stage(chunk)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if !strings.Contains(filepath.Base(path), "chunk_0003") {
		t.Errorf("staged file name should contain chunk index: %s", path)
	}

	// Reading the staged file back must yield byte-identical content.
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if !bytes.Equal(got, chunk.Data) {
		t.Errorf("staged content = %v, want %v", got, chunk.Data)
	}
}

func TestStoreUniqueFilePerChunkIndex(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	a, err := store.Stage(Chunk{Index: 0, Data: []byte{1}})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	b, err := store.Stage(Chunk{Index: 1, Data: []byte{2}})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if a == b {
		t.Errorf("chunks 0 and 1 staged to the same path: %s", a)
	}
}

func TestStoreDirsDoNotCollide(t *testing.T) {
	base := t.TempDir()
	first, err := NewStore(base, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer first.Close()

	second, err := NewStore(base, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer second.Close()

	if first.Dir() == second.Dir() {
		t.Errorf("two stores share the staging directory %s", first.Dir())
	}
}

func TestStoreUnstage(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	path, err := store.Stage(Chunk{Index: 0, Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	store.Unstage(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("staged file still exists after Unstage: %s", path)
	}

	// Unstaging a missing file must be silent, not a panic or error.
	store.Unstage(path)
	store.Unstage("")
}

func TestStoreStageErrorType(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	// Remove the staging dir out from under the store to force a write failure.
	if err := os.RemoveAll(store.Dir()); err != nil {
		t.Fatalf("failed to remove staging dir: %v", err)
	}

	_, err = store.Stage(Chunk{Index: 7, Data: []byte{1}})
	if err == nil {
		t.Fatal("expected staging error, got nil")
	}

	stageErr, ok := err.(*StageError)
	if !ok {
		t.Fatalf("expected *StageError, got %T: %v", err, err)
	}
	if stageErr.ChunkIndex != 7 {
		t.Errorf("StageError.ChunkIndex = %d, want 7", stageErr.ChunkIndex)
	}
	if stageErr.Unwrap() == nil {
		t.Error("StageError should wrap the underlying I/O error")
	}
}

func TestStoreClose(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if _, err := store.Stage(Chunk{Index: 0, Data: []byte{1}}); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(store.Dir()); !os.IsNotExist(err) {
		t.Errorf("staging directory still exists after Close: %s", store.Dir())
	}
}
