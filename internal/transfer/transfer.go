// Package transfer orchestrates moving a binary image into the
// target's external flash: each chunk is staged to disk, restored into
// a RAM buffer over the debugger, copied into flash by a
// target-resident routine, and verified by comparing checksums. Chunks
// advance strictly in order; a chunk is retried in place until it
// verifies or the attempt limit is reached.
package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/extflash/internal/checksum"
	"github.com/muurk/extflash/internal/image"
	"github.com/muurk/extflash/internal/logging"
)

// Driver is the debugger surface the orchestrator needs: write a
// staged file into target RAM, invoke the target-resident copy
// routine, and tear the session down. *gdb.Session satisfies it; tests
// substitute a scripted fake.
type Driver interface {
	Restore(ctx context.Context, file string, addr uint64) (start, end uint64, err error)
	CallFunction(ctx context.Context, symbol string, args ...uint64) (uint32, error)
	DumpMemory(ctx context.Context, file string, start, end uint64) error
	Shutdown(ctx context.Context) error
}

// Params describes the target's memory layout and the transfer policy.
type Params struct {
	// RAMBufferAddr is the staging buffer address in target RAM
	RAMBufferAddr uint64

	// RAMBufferSize is the staging buffer capacity in bytes
	RAMBufferSize int

	// FlashBase is the external flash base address chunks are copied to
	FlashBase uint64

	// CopyFunction is the symbol name of the target routine that moves
	// the staging buffer into flash and returns its checksum
	CopyFunction string

	// ChunkSize is the transfer unit in bytes. Zero means the full
	// RAM buffer size.
	ChunkSize int

	// MaxAttempts bounds attempts per chunk. Zero means 3.
	MaxAttempts int

	// VerifyReadback, when set, dumps the RAM buffer back to the host
	// after the final chunk and compares it byte for byte with what
	// was staged. A spot check on top of the per-chunk checksums.
	VerifyReadback bool
}

// Validate checks the parameters before any debugger interaction.
func (p *Params) Validate() error {
	if p.RAMBufferAddr == 0 {
		return &ConfigurationError{Field: "ram_buffer_addr", Reason: "must be non-zero"}
	}
	if p.RAMBufferSize <= 0 {
		return &ConfigurationError{Field: "ram_buffer_size", Reason: "must be positive"}
	}
	if p.CopyFunction == "" {
		return &ConfigurationError{Field: "copy_function", Reason: "symbol name is required"}
	}
	if p.ChunkSize < 0 {
		return &ConfigurationError{Field: "chunk_size", Reason: "must not be negative"}
	}
	if p.ChunkSize > p.RAMBufferSize {
		return &ConfigurationError{
			Field:  "chunk_size",
			Reason: fmt.Sprintf("%d exceeds RAM buffer size %d", p.ChunkSize, p.RAMBufferSize),
		}
	}
	if p.MaxAttempts < 0 {
		return &ConfigurationError{Field: "max_attempts", Reason: "must not be negative"}
	}
	return nil
}

// chunkSize returns the effective transfer unit.
func (p *Params) chunkSize() int {
	if p.ChunkSize == 0 {
		return p.RAMBufferSize
	}
	return p.ChunkSize
}

func (p *Params) maxAttempts() int {
	if p.MaxAttempts == 0 {
		return 3
	}
	return p.MaxAttempts
}

// Phase identifies where in the per-chunk cycle a progress event was
// emitted.
type Phase string

const (
	PhaseStaged   Phase = "staged"
	PhaseRestored Phase = "restored"
	PhaseCopied   Phase = "copied"
	PhaseVerified Phase = "verified"
	PhaseRetrying Phase = "retrying"
)

// Progress is a point-in-time snapshot delivered to the progress
// callback. Callbacks run on the transfer goroutine and must not block.
type Progress struct {
	ChunkIndex     int
	ChunksTotal    int
	BytesTotal     int64
	BytesRemaining int64
	Attempt        int
	Phase          Phase
}

// staged is a chunk prepared ahead of time: written to disk with its
// checksum precomputed.
type staged struct {
	chunk image.Chunk
	path  string
	sum   uint32
	err   error
}

// Session runs one image transfer over an attached debugger session.
type Session struct {
	driver Driver
	store  *image.Store
	img    *image.Image
	params Params
	logger *zap.Logger

	// OnProgress, when set, receives a snapshot after each phase of
	// each chunk attempt.
	OnProgress func(Progress)
}

// New builds a transfer session. Validate is the caller's first call
// on the returned session; nothing touches the target before Run.
func New(driver Driver, store *image.Store, img *image.Image, params Params, logger *zap.Logger) *Session {
	return &Session{
		driver: driver,
		store:  store,
		img:    img,
		params: params,
		logger: logger,
	}
}

// Run transfers the whole image chunk by chunk. Each chunk is staged
// to disk, restored into the target's RAM buffer, copied into flash by
// the target routine, and verified by checksum; a failed attempt is
// retried from a fresh staging up to the attempt limit. The debugger
// session is shut down on every exit path, success or not.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		// The run context may already be cancelled; the teardown gets
		// its own deadline so the subprocess is still reaped.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.driver.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("debugger shutdown reported error", zap.Error(err))
		}
	}()

	if err := s.params.Validate(); err != nil {
		return err
	}

	chunks, err := s.img.Split(s.params.chunkSize())
	if err != nil {
		return err
	}

	total := int64(s.img.Len())
	s.logger.Info("starting transfer",
		zap.String("image", s.img.Path()),
		zap.Int64("bytes", total),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", s.params.chunkSize()),
		zap.String("ram_buffer", fmt.Sprintf("%#x", s.params.RAMBufferAddr)),
		zap.String("flash_base", fmt.Sprintf("%#x", s.params.FlashBase)),
	)

	// Stage ahead: the next chunk is written and checksummed while the
	// debugger is busy with the current one. Capacity one keeps at most
	// two staged files alive at a time.
	ahead := make(chan staged, 1)
	stageCtx, stopStaging := context.WithCancel(ctx)
	defer stopStaging()
	go s.stageAhead(stageCtx, chunks, ahead)

	transferred := int64(0)
	var last image.Chunk
	for {
		var st staged
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st2, ok := <-ahead:
			if !ok {
				if s.params.VerifyReadback {
					if err := s.readback(ctx, last); err != nil {
						return err
					}
				}
				s.logger.Info("transfer complete",
					zap.Int64("bytes", transferred),
					zap.Int("chunks", len(chunks)),
				)
				return nil
			}
			st = st2
		}

		if err := s.transferChunk(ctx, st, len(chunks), total, transferred); err != nil {
			return err
		}
		transferred += int64(len(st.chunk.Data))
		last = st.chunk
	}
}

// readback dumps the RAM buffer to a host file and compares it with
// the last chunk staged into it. The copy routine already reported a
// matching checksum; this catches a buffer the debugger and target
// disagree about at the byte level.
func (s *Session) readback(ctx context.Context, last image.Chunk) error {
	path := filepath.Join(s.store.Dir(), "readback.bin")
	defer s.store.Unstage(path)

	end := s.params.RAMBufferAddr + uint64(len(last.Data))
	if err := s.driver.DumpMemory(ctx, path, s.params.RAMBufferAddr, end); err != nil {
		return err
	}

	got, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read dumped buffer: %w", err)
	}
	if len(got) != len(last.Data) {
		return &ReadbackError{ChunkIndex: last.Index, Offset: -1}
	}
	for i := range got {
		if got[i] != last.Data[i] {
			logging.LogRawBytes(s.logger, "read-back bytes at mismatch", got)
			return &ReadbackError{ChunkIndex: last.Index, Offset: i}
		}
	}

	s.logger.Debug("read-back spot check passed",
		zap.Int("chunk_index", last.Index),
		zap.Int("size", len(last.Data)),
	)
	return nil
}

// stageAhead writes upcoming chunks to the store, one ahead of the
// consumer. A staging failure travels in-band; the consumer decides
// whether to retry it.
func (s *Session) stageAhead(ctx context.Context, chunks []image.Chunk, out chan<- staged) {
	defer close(out)
	for _, c := range chunks {
		path, err := s.store.Stage(c)
		st := staged{chunk: c, path: path, err: err}
		if err == nil {
			st.sum = checksum.Sum32(c.Data)
		}
		select {
		case out <- st:
		case <-ctx.Done():
			return
		}
	}
}

// transferChunk pushes one chunk through restore, copy, and verify,
// retrying the full cycle on retryable failures.
func (s *Session) transferChunk(ctx context.Context, st staged, chunksTotal int, bytesTotal, transferred int64) error {
	c := st.chunk
	remaining := bytesTotal - transferred - int64(len(c.Data))
	maxAttempts := s.params.maxAttempts()

	report := func(attempt int, phase Phase) {
		if s.OnProgress == nil {
			return
		}
		s.OnProgress(Progress{
			ChunkIndex:     c.Index,
			ChunksTotal:    chunksTotal,
			BytesTotal:     bytesTotal,
			BytesRemaining: remaining,
			Attempt:        attempt,
			Phase:          phase,
		})
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 1 {
			s.logger.Warn("retrying chunk",
				zap.Int("chunk_index", c.Index),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			report(attempt, PhaseRetrying)
			// Restage from the original bytes; the previous staging
			// file may be the thing that was corrupt.
			path, err := s.store.Stage(c)
			if err != nil {
				lastErr = err
				continue
			}
			st.path = path
			st.sum = checksum.Sum32(c.Data)
		} else if st.err != nil {
			// The prefetch goroutine failed to stage this chunk.
			lastErr = st.err
			st.err = nil
			continue
		}
		report(attempt, PhaseStaged)

		err := s.attempt(ctx, st, attempt, report)
		if err == nil {
			s.store.Unstage(st.path)
			report(attempt, PhaseVerified)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}

	s.store.Unstage(st.path)
	return &SessionError{ChunkIndex: c.Index, Attempts: maxAttempts, Err: lastErr}
}

// attempt performs one restore/copy/verify cycle for a staged chunk.
func (s *Session) attempt(ctx context.Context, st staged, attempt int, report func(int, Phase)) error {
	c := st.chunk
	want := len(c.Data)

	start, end, err := s.driver.Restore(ctx, st.path, s.params.RAMBufferAddr)
	if err != nil {
		return err
	}
	if start != s.params.RAMBufferAddr {
		return &RestoreSizeError{ChunkIndex: c.Index, Want: want, Got: end - start}
	}
	if end-start != uint64(want) {
		return &RestoreSizeError{ChunkIndex: c.Index, Want: want, Got: end - start}
	}
	report(attempt, PhaseRestored)

	dest := s.params.FlashBase + uint64(c.Offset)
	targetSum, err := s.driver.CallFunction(ctx, s.params.CopyFunction, dest, uint64(want))
	if err != nil {
		return err
	}
	report(attempt, PhaseCopied)

	if targetSum != st.sum {
		logging.LogChunkBytes(s.logger, "staged bytes at checksum mismatch", c.Index, c.Data)
		return &ChecksumMismatchError{
			ChunkIndex: c.Index,
			Attempt:    attempt,
			Host:       st.sum,
			Target:     targetSum,
		}
	}

	s.logger.Debug("chunk verified",
		zap.Int("chunk_index", c.Index),
		zap.String("flash_addr", fmt.Sprintf("%#x", dest)),
		zap.Int("size", want),
		zap.Uint32("checksum", st.sum),
	)
	return nil
}
