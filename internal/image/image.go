// Package image loads the source binary and splits it into chunks
// sized to fit the target's RAM staging buffer. It also owns the
// per-run staging directory where chunks are written as temporary
// files before being handed to the debugger's restore command.
package image

import (
	"fmt"
	"os"
)

// Image is a binary image read once from disk. The byte contents are
// never modified after Load; chunks are views into the same backing
// array.
type Image struct {
	path string
	data []byte
}

// Chunk is a bounded contiguous slice of the source image.
// Chunks are produced in strictly increasing offset order and
// partition the image exactly: no gaps, no overlaps.
type Chunk struct {
	// Index is the ordinal of this chunk, starting at 0.
	Index int
	// Offset is the byte offset of Data within the image.
	Offset int64
	// Data is a view into the image; never modified.
	Data []byte
	// Last is true for exactly one chunk, the final one.
	Last bool
}

// Load reads the binary image at path into memory.
// An empty file is rejected: there is nothing to transfer and the
// chunk invariants (exactly one final chunk) would not hold.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", path)
	}
	return &Image{path: path, data: data}, nil
}

// FromBytes wraps an in-memory byte slice as an Image.
// The caller must not modify data afterwards.
func FromBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	return &Image{path: "<memory>", data: data}, nil
}

// Path returns the source path the image was loaded from.
func (img *Image) Path() string {
	return img.path
}

// Len returns the image length in bytes.
func (img *Image) Len() int {
	return len(img.data)
}

// Split divides the image into chunks of chunkSize bytes each; the
// final chunk holds the remainder and may be shorter. The returned
// slice is ordered by offset and can be iterated any number of times.
func (img *Image) Split(chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	total := (len(img.data) + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, total)

	for offset := 0; offset < len(img.data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(img.data) {
			end = len(img.data)
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: int64(offset),
			Data:   img.data[offset:end],
			Last:   end == len(img.data),
		})
	}

	return chunks, nil
}
