package transfer

import "fmt"

// ConfigurationError represents invalid target parameters, detected
// before any transfer begins. Fatal: the session is never started.
type ConfigurationError struct {
	// Field names the offending parameter
	Field string
	// Reason explains the violation
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// ChecksumMismatchError represents a host/target checksum disagreement
// for one chunk attempt. Retryable up to the attempt limit, then fatal
// for the session.
type ChecksumMismatchError struct {
	// ChunkIndex is the chunk whose verification failed
	ChunkIndex int
	// Attempt is the attempt number that failed (1-based)
	Attempt int
	// Host is the checksum computed over the staged bytes
	Host uint32
	// Target is the checksum returned by the copy routine
	Target uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch on chunk %d (attempt %d): host=%d target=%d",
		e.ChunkIndex, e.Attempt, e.Host, e.Target)
}

// RestoreSizeError reports a restore confirmation whose address range
// does not span exactly the staged chunk. Treated like a parse
// failure: the debugger's answer cannot be trusted for this attempt.
type RestoreSizeError struct {
	// ChunkIndex is the chunk being restored
	ChunkIndex int
	// Want is the chunk length in bytes
	Want int
	// Got is end - start from the parsed confirmation
	Got uint64
}

func (e *RestoreSizeError) Error() string {
	return fmt.Sprintf("restore range for chunk %d spans %d bytes, want %d",
		e.ChunkIndex, e.Got, e.Want)
}

// ReadbackError reports a post-transfer spot check whose dumped bytes
// differ from what was staged. The transfer itself already verified
// per-chunk checksums; this is a stronger byte-level disagreement.
type ReadbackError struct {
	// ChunkIndex is the chunk whose bytes were read back
	ChunkIndex int
	// Offset is the first differing byte, -1 for a length mismatch
	Offset int
}

func (e *ReadbackError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("read-back of chunk %d returned the wrong number of bytes", e.ChunkIndex)
	}
	return fmt.Sprintf("read-back of chunk %d differs at byte %d", e.ChunkIndex, e.Offset)
}

// SessionError is the terminal failure of a transfer session: it names
// the chunk at which the session stopped and the last error seen.
type SessionError struct {
	// ChunkIndex is the chunk the session failed on
	ChunkIndex int
	// Attempts is how many attempts were made on that chunk
	Attempts int
	// Underlying error from the final attempt
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("transfer failed at chunk %d after %d attempt(s): %v",
		e.ChunkIndex, e.Attempts, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
