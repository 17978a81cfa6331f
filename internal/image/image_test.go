package image

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.bin")
	content := []byte{0xde, 0xad, 0xbe, 0xef}

	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if img.Len() != len(content) {
		t.Errorf("expected length %d, got %d", len(content), img.Len())
	}
	if img.Path() != path {
		t.Errorf("expected path %s, got %s", path, img.Path())
	}
}

func TestLoadEmptyImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for empty image, got nil")
	}
}

func TestLoadMissingImage(t *testing.T) {
	if _, err := Load("/nonexistent/image.bin"); err == nil {
		t.Error("expected error for missing image, got nil")
	}
}

func TestSplitInvalidChunkSize(t *testing.T) {
	img, err := FromBytes([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}

	for _, size := range []int{0, -1, -1024} {
		if _, err := img.Split(size); err == nil {
			t.Errorf("expected error for chunk size %d, got nil", size)
		}
	}
}

func TestSplitPartitionsImage(t *testing.T) {
	tests := []struct {
		name       string
		imageLen   int
		chunkSize  int
		wantChunks int
		wantLast   int // length of final chunk
	}{
		{"exact multiple", 1024, 256, 4, 256},
		{"with remainder", 1000, 256, 4, 232},
		{"single chunk", 100, 256, 1, 100},
		{"single byte chunks", 5, 1, 5, 1},
		{"one byte image", 1, 4096, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.imageLen)
			for i := range data {
				data[i] = byte(i)
			}
			img, err := FromBytes(data)
			if err != nil {
				t.Fatalf("FromBytes failed: %v", err)
			}

			chunks, err := img.Split(tt.chunkSize)
			if err != nil {
				t.Fatalf("Split failed: %v", err)
			}

			if len(chunks) != tt.wantChunks {
				t.Fatalf("expected %d chunks, got %d", tt.wantChunks, len(chunks))
			}

			// Offsets must be contiguous and non-overlapping,
			// lengths must sum to the image length.
			var next int64
			var total int
			lastCount := 0
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk %d has index %d", i, c.Index)
				}
				if c.Offset != next {
					t.Errorf("chunk %d offset = %d, want %d", i, c.Offset, next)
				}
				if len(c.Data) == 0 {
					t.Errorf("chunk %d is empty", i)
				}
				if len(c.Data) > tt.chunkSize {
					t.Errorf("chunk %d length %d exceeds chunk size %d", i, len(c.Data), tt.chunkSize)
				}
				if c.Last {
					lastCount++
					if i != len(chunks)-1 {
						t.Errorf("chunk %d marked last but is not final", i)
					}
				}
				next += int64(len(c.Data))
				total += len(c.Data)
			}

			if total != tt.imageLen {
				t.Errorf("chunk lengths sum to %d, want %d", total, tt.imageLen)
			}
			if lastCount != 1 {
				t.Errorf("expected exactly one last chunk, got %d", lastCount)
			}
			if got := len(chunks[len(chunks)-1].Data); got != tt.wantLast {
				t.Errorf("final chunk length = %d, want %d", got, tt.wantLast)
			}
		})
	}
}

func TestSplitDataMatchesImage(t *testing.T) {
	data := []byte("0123456789abcdef0123")
	img, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}

	chunks, err := img.Split(8)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	var rebuilt []byte
	for _, c := range chunks {
		rebuilt = append(rebuilt, c.Data...)
	}

	if !bytes.Equal(rebuilt, data) {
		t.Errorf("reassembled chunks = %q, want %q", rebuilt, data)
	}
}

func TestSplitIsRestartable(t *testing.T) {
	img, err := FromBytes(make([]byte, 1000))
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}

	first, err := img.Split(64)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, err := img.Split(64)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("repeated Split produced %d then %d chunks", len(first), len(second))
	}
	for i := range first {
		if first[i].Offset != second[i].Offset || len(first[i].Data) != len(second[i].Data) {
			t.Errorf("chunk %d differs between Split calls", i)
		}
	}
}
