package gdb

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds the configuration for a debugger session.
type Config struct {
	// GDBPath is the path to the gdb binary.
	// Default: "arm-none-eabi-gdb" (searches PATH)
	GDBPath string

	// SymbolFile is the ELF file loaded for target symbols (the copy
	// routine is invoked by symbol name).
	SymbolFile string

	// RemoteHost is the hostname/IP of the GDB server attached to the
	// target. Default: "localhost"
	RemoteHost string

	// RemotePort is the GDB server port. Default: 3333
	RemotePort int

	// ResponseTimeout bounds each command turn: output accumulates
	// until the prompt sentinel appears or this deadline elapses.
	// Default: 5 seconds
	ResponseTimeout time.Duration

	// StartupTimeout bounds the spawn banner and the initial connect
	// sequence. Default: 10 seconds
	StartupTimeout time.Duration

	// Grammar defines the output patterns parsed from responses.
	// Zero value means DefaultGrammar().
	Grammar Grammar
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GDBPath:         "arm-none-eabi-gdb",
		RemoteHost:      "localhost",
		RemotePort:      3333,
		ResponseTimeout: 5 * time.Second,
		StartupTimeout:  10 * time.Second,
		Grammar:         DefaultGrammar(),
	}
}

// Response is the accumulated textual output of one command turn.
type Response struct {
	// Command is the command line that produced this response
	Command string
	// Lines are the output lines, prompt and trailing whitespace stripped
	Lines []string
	// Complete is true once the prompt sentinel was observed
	Complete bool
}

// Text joins the response lines for error reporting and logging.
func (r *Response) Text() string {
	return strings.Join(r.Lines, "\n")
}

// outLine is one unit from the reader goroutine: either a full output
// line or the prompt sentinel.
type outLine struct {
	text   string
	prompt bool
}

// Session owns the debugger subprocess end to end: it spawns the
// process, performs the attach sequence, serializes command turns over
// its stdin/stdout, and guarantees the process is torn down on
// Shutdown. At most one command is in flight at a time; concurrent
// callers queue on the session mutex.
type Session struct {
	config Config
	logger *zap.Logger
	parser *Parser

	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   <-chan outLine

	mu     sync.Mutex
	closed bool
}

// Start spawns the debugger, drains its startup banner, and performs
// the attach sequence (connect to the remote target, disable
// confirmation prompts). Returns a StartupError if the process cannot
// be spawned or the handshake does not complete cleanly.
func Start(ctx context.Context, config Config, logger *zap.Logger) (*Session, error) {
	if config.Grammar.Prompt == "" {
		config.Grammar = DefaultGrammar()
	}
	if config.ResponseTimeout <= 0 {
		config.ResponseTimeout = 5 * time.Second
	}
	if config.StartupTimeout <= 0 {
		config.StartupTimeout = 10 * time.Second
	}

	parser, err := NewParser(config.Grammar)
	if err != nil {
		return nil, &StartupError{GDBPath: config.GDBPath, Stage: "grammar", Err: err}
	}

	args := []string{"-q", "-nx"}
	if config.SymbolFile != "" {
		args = append(args, config.SymbolFile)
	}

	logger.Info("starting debugger session",
		zap.String("gdb_path", config.GDBPath),
		zap.String("symbol_file", config.SymbolFile),
		zap.String("remote", fmt.Sprintf("%s:%d", config.RemoteHost, config.RemotePort)),
		zap.Duration("response_timeout", config.ResponseTimeout),
	)

	cmd := exec.Command(config.GDBPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &StartupError{GDBPath: config.GDBPath, Stage: "spawn", Err: err}
	}

	// The debugger interleaves diagnostics on stderr with console
	// output; merge both into one stream so failure lines are visible
	// to the response scanner.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &StartupError{GDBPath: config.GDBPath, Stage: "spawn", Err: err}
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &StartupError{GDBPath: config.GDBPath, Stage: "spawn", Err: err}
	}
	// The child holds its own copies of the write end.
	pw.Close()

	s := &Session{
		config: config,
		logger: logger,
		parser: parser,
		cmd:    cmd,
		stdin:  stdin,
		out:    readOutput(pr, config.Grammar.Prompt, logger),
	}

	if err := s.handshake(ctx); err != nil {
		s.kill()
		return nil, err
	}

	logger.Info("debugger session established")
	return s, nil
}

// readOutput reads the merged output stream byte by byte, emitting
// full lines and the prompt sentinel as they appear. The prompt has no
// trailing newline, so a plain line scanner would never surface it.
func readOutput(r io.ReadCloser, prompt string, logger *zap.Logger) <-chan outLine {
	out := make(chan outLine, 64)
	go func() {
		defer close(out)
		defer r.Close()

		br := bufio.NewReader(r)
		var buf []byte
		for {
			b, err := br.ReadByte()
			if err != nil {
				if len(buf) > 0 {
					out <- outLine{text: strings.TrimRight(string(buf), "\r\n")}
				}
				if err != io.EOF {
					logger.Debug("debugger output stream closed", zap.Error(err))
				}
				return
			}
			buf = append(buf, b)
			if b == '\n' {
				out <- outLine{text: strings.TrimRight(string(buf), "\r\n")}
				buf = buf[:0]
			} else if string(buf) == prompt {
				out <- outLine{prompt: true}
				buf = buf[:0]
			}
		}
	}()
	return out
}

// handshake drains the startup banner and runs the connect sequence.
func (s *Session) handshake(ctx context.Context) error {
	// The banner ends with the first prompt.
	banner, err := s.collect(ctx, "<startup>", s.config.StartupTimeout)
	if err != nil {
		return &StartupError{
			GDBPath: s.config.GDBPath,
			Stage:   "banner",
			Output:  banner.Text(),
			Err:     err,
		}
	}

	connect := fmt.Sprintf("target remote %s:%d", s.config.RemoteHost, s.config.RemotePort)
	resp, err := s.send(ctx, connect, s.config.StartupTimeout)
	if err != nil {
		return &StartupError{GDBPath: s.config.GDBPath, Stage: "connect", Output: resp.Text(), Err: err}
	}
	if ferr := s.parser.DetectFailure(resp); ferr != nil {
		return &StartupError{GDBPath: s.config.GDBPath, Stage: "connect", Output: resp.Text(), Err: ferr}
	}

	// Restore and call would otherwise stall on y/n questions.
	if _, err := s.send(ctx, "set confirm off", s.config.ResponseTimeout); err != nil {
		return &StartupError{GDBPath: s.config.GDBPath, Stage: "configure", Err: err}
	}

	return nil
}

// Parser returns the response parser bound to this session's grammar.
func (s *Session) Parser() *Parser {
	return s.parser
}

// Send writes one command line and accumulates output until the prompt
// sentinel or the configured response timeout. Exactly one command is
// outstanding at a time.
func (s *Session) Send(ctx context.Context, command string) (*Response, error) {
	return s.SendTimeout(ctx, command, s.config.ResponseTimeout)
}

// SendTimeout is Send with a per-command deadline, for commands with a
// known longer turnaround (target-side sleeps, large restores).
func (s *Session) SendTimeout(ctx context.Context, command string, timeout time.Duration) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &ExecutionError{Command: command, Err: fmt.Errorf("session is shut down")}
	}
	return s.send(ctx, command, timeout)
}

// send performs one command turn. Callers must hold s.mu or be the
// startup/shutdown path that owns the session exclusively.
func (s *Session) send(ctx context.Context, command string, timeout time.Duration) (*Response, error) {
	s.logger.Debug("sending debugger command", zap.String("command", command))

	if _, err := io.WriteString(s.stdin, command+"\n"); err != nil {
		return &Response{Command: command}, &ExecutionError{Command: command, Err: err}
	}

	resp, err := s.collect(ctx, command, timeout)
	if err != nil {
		return resp, err
	}

	s.logger.Debug("debugger response complete",
		zap.String("command", command),
		zap.Int("lines", len(resp.Lines)),
	)
	return resp, nil
}

// collect accumulates output lines until the prompt sentinel, the
// deadline, or cancellation. On timeout the partial output travels
// inside the TimeoutError.
func (s *Session) collect(ctx context.Context, command string, timeout time.Duration) (*Response, error) {
	resp := &Response{Command: command}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case <-timer.C:
			return resp, &TimeoutError{Command: command, Timeout: timeout, Partial: resp.Lines}
		case ln, ok := <-s.out:
			if !ok {
				return resp, &ExecutionError{
					Command: command,
					Err:     fmt.Errorf("debugger closed its output stream"),
				}
			}
			if ln.prompt {
				resp.Complete = true
				return resp, nil
			}
			if ln.text != "" {
				s.logger.Debug("debugger output", zap.String("line", ln.text))
				resp.Lines = append(resp.Lines, ln.text)
			}
		}
	}
}

// Restore writes a staged file into target memory at addr and returns
// the (start, end) address range the debugger confirms.
func (s *Session) Restore(ctx context.Context, file string, addr uint64) (start, end uint64, err error) {
	resp, err := s.Send(ctx, fmt.Sprintf("restore %s binary %#x", file, addr))
	if err != nil {
		return 0, 0, err
	}
	if ferr := s.parser.DetectFailure(resp); ferr != nil {
		return 0, 0, ferr
	}
	return s.parser.ParseAddressRange(resp)
}

// CallFunction invokes a target-resident routine by symbol name and
// returns its numeric result.
func (s *Session) CallFunction(ctx context.Context, symbol string, args ...uint64) (uint32, error) {
	formatted := make([]string, len(args))
	for i, a := range args {
		formatted[i] = fmt.Sprintf("%d", a)
	}
	resp, err := s.Send(ctx, fmt.Sprintf("call %s(%s)", symbol, strings.Join(formatted, ", ")))
	if err != nil {
		return 0, err
	}
	if ferr := s.parser.DetectFailure(resp); ferr != nil {
		return 0, ferr
	}
	return s.parser.ParseCallResult(resp)
}

// DumpMemory reads target memory [start, end) into a host file. The
// debugger creates the file.
func (s *Session) DumpMemory(ctx context.Context, file string, start, end uint64) error {
	resp, err := s.Send(ctx, fmt.Sprintf("dump binary memory %s %#x %#x", file, start, end))
	if err != nil {
		return err
	}
	return s.parser.DetectFailure(resp)
}

// MonitorHalt halts the target via the debug server.
func (s *Session) MonitorHalt(ctx context.Context) error {
	return s.simple(ctx, "monitor halt")
}

// MonitorReset resets the target via the debug server.
func (s *Session) MonitorReset(ctx context.Context) error {
	return s.simple(ctx, "monitor reset")
}

// MonitorSleep asks the debug server to pause for the given duration;
// the response deadline is extended accordingly.
func (s *Session) MonitorSleep(ctx context.Context, d time.Duration) error {
	resp, err := s.SendTimeout(ctx, fmt.Sprintf("monitor sleep %d", d.Milliseconds()),
		s.config.ResponseTimeout+d)
	if err != nil {
		return err
	}
	return s.parser.DetectFailure(resp)
}

// BreakAt sets a breakpoint on a symbol.
func (s *Session) BreakAt(ctx context.Context, symbol string) error {
	return s.simple(ctx, "break "+symbol)
}

// Continue resumes target execution.
func (s *Session) Continue(ctx context.Context) error {
	return s.simple(ctx, "continue")
}

func (s *Session) simple(ctx context.Context, command string) error {
	resp, err := s.Send(ctx, command)
	if err != nil {
		return err
	}
	return s.parser.DetectFailure(resp)
}

// Shutdown sends the disconnect/quit sequence and reaps the
// subprocess, killing it if it does not exit promptly. Idempotent;
// safe to call on every exit path.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Info("shutting down debugger session")

	// Best effort: the process may already be gone.
	_, _ = s.send(ctx, "detach", time.Second)
	_, _ = s.send(ctx, "quit", time.Second)
	_ = s.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Debug("debugger exited with error", zap.Error(err))
		}
	case <-time.After(3 * time.Second):
		s.logger.Warn("debugger did not exit, killing subprocess")
		_ = s.cmd.Process.Kill()
		<-done
	case <-ctx.Done():
		_ = s.cmd.Process.Kill()
		<-done
	}

	s.logger.Info("debugger session closed")
	return nil
}

// kill tears down a half-started session without the quit sequence.
func (s *Session) kill() {
	s.closed = true
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
}
