package image

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store stages chunks as temporary files under a directory created for
// a single transfer run. The directory name is unique per run, so
// concurrent or repeated runs never collide. The debugger's restore
// command reads the staged file by path; the store deletes it once the
// chunk has been verified or abandoned.
type Store struct {
	dir    string
	logger *zap.Logger
}

// StageError reports a failure to write a chunk's staging file.
// Staging failures abort the chunk attempt but are retryable.
type StageError struct {
	// ChunkIndex is the chunk whose staging failed
	ChunkIndex int
	// Path is the staging file path
	Path string
	// Underlying error
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("failed to stage chunk %d to %s: %v", e.ChunkIndex, e.Path, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStore creates a staging directory under baseDir (os.TempDir()
// when empty) and returns a Store bound to it.
func NewStore(baseDir string, logger *zap.Logger) (*Store, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir, err := os.MkdirTemp(baseDir, "extflash-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	logger.Debug("created staging directory", zap.String("dir", dir))

	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the staging directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Stage writes the chunk's bytes to a new file named by the chunk
// index and returns its path.
func (s *Store) Stage(c Chunk) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("chunk_%04d.bin", c.Index))

	if err := os.WriteFile(path, c.Data, 0600); err != nil {
		return "", &StageError{ChunkIndex: c.Index, Path: path, Err: err}
	}

	s.logger.Debug("staged chunk",
		zap.Int("chunk_index", c.Index),
		zap.Int64("offset", c.Offset),
		zap.Int("size", len(c.Data)),
		zap.String("file", path),
	)

	return path, nil
}

// Unstage deletes a staged file. Deletion failure does not affect
// transfer correctness, so it is logged and swallowed.
func (s *Store) Unstage(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove staged chunk file",
			zap.String("file", path),
			zap.Error(err),
		)
	}
}

// Close removes the staging directory and anything left in it.
func (s *Store) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		s.logger.Warn("failed to remove staging directory",
			zap.String("dir", s.dir),
			zap.Error(err),
		)
		return err
	}
	return nil
}
