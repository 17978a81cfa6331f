package gdb

import (
	"fmt"
	"regexp"
	"strconv"
)

// Grammar defines the textual patterns extracted from debugger console
// output. The console format is a weak contract that varies between
// debugger builds, so the patterns are plain strings that can be
// overridden from configuration; everything else in the package works
// against the parsed values only.
type Grammar struct {
	// Prompt is the sentinel that marks a response as complete.
	Prompt string
	// AddressRange matches a restore/load confirmation line and must
	// capture two hexadecimal addresses (start, end).
	AddressRange string
	// CallResult matches a value-history line ($N = <value>) and must
	// capture the decimal result.
	CallResult string
	// Failures are line patterns the debugger emits when a command
	// itself failed rather than produced unexpected output.
	Failures []string
}

// DefaultGrammar matches the console output of GNU gdb as shipped in
// the arm-none-eabi toolchains.
func DefaultGrammar() Grammar {
	return Grammar{
		Prompt:       "(gdb) ",
		AddressRange: `\((0x[0-9a-fA-F]+) to (0x[0-9a-fA-F]+)\)`,
		CallResult:   `\$\d+\s*=\s*(-?\d+)`,
		Failures: []string{
			`Cannot access memory at address`,
			`Connection (?:refused|timed out|closed)`,
			`Remote communication error`,
			`Remote connection closed`,
			`No symbol .* in current context`,
			`Undefined command`,
			`: No such file or directory`,
		},
	}
}

// Parser extracts structured values from debugger responses using a
// compiled Grammar.
type Parser struct {
	grammar      Grammar
	addressRange *regexp.Regexp
	callResult   *regexp.Regexp
	failures     []*regexp.Regexp
}

// NewParser compiles the grammar's patterns. Returns an error if any
// pattern is not a valid regular expression.
func NewParser(g Grammar) (*Parser, error) {
	addressRange, err := regexp.Compile(g.AddressRange)
	if err != nil {
		return nil, fmt.Errorf("invalid address range pattern %q: %w", g.AddressRange, err)
	}
	if addressRange.NumSubexp() < 2 {
		return nil, fmt.Errorf("address range pattern %q must capture two addresses", g.AddressRange)
	}

	callResult, err := regexp.Compile(g.CallResult)
	if err != nil {
		return nil, fmt.Errorf("invalid call result pattern %q: %w", g.CallResult, err)
	}
	if callResult.NumSubexp() < 1 {
		return nil, fmt.Errorf("call result pattern %q must capture the value", g.CallResult)
	}

	failures := make([]*regexp.Regexp, 0, len(g.Failures))
	for _, pat := range g.Failures {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid failure pattern %q: %w", pat, err)
		}
		failures = append(failures, re)
	}

	return &Parser{
		grammar:      g,
		addressRange: addressRange,
		callResult:   callResult,
		failures:     failures,
	}, nil
}

// ParseAddressRange extracts the (start, end) address pair from a
// restore confirmation response, e.g.
//
//	Restoring binary file chunk_0000.bin into memory (0x200b76a8 to 0x200c76a8)
//
// Returns a ParseError if no line matches the grammar.
func (p *Parser) ParseAddressRange(resp *Response) (start, end uint64, err error) {
	for _, line := range resp.Lines {
		m := p.addressRange.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err = parseHex(m[1])
		if err != nil {
			return 0, 0, &ParseError{Command: resp.Command, Field: "start address", Output: line, Err: err}
		}
		end, err = parseHex(m[2])
		if err != nil {
			return 0, 0, &ParseError{Command: resp.Command, Field: "end address", Output: line, Err: err}
		}
		return start, end, nil
	}
	return 0, 0, &ParseError{
		Command: resp.Command,
		Field:   "address range",
		Output:  resp.Text(),
		Err:     fmt.Errorf("no line matched %q", p.grammar.AddressRange),
	}
}

// ParseCallResult extracts the numeric result of a function-call
// command from a value-history line, e.g.
//
//	$103 = 8199517
//
// The value is the target copy routine's checksum, a 32-bit unsigned
// quantity. Returns a ParseError if no line matches the grammar or the
// value does not fit in 32 bits.
func (p *Parser) ParseCallResult(resp *Response) (uint32, error) {
	for _, line := range resp.Lines {
		m := p.callResult.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// gdb prints the declared return type; a firmware routine
		// returning int32 may show a negative rendering of the same
		// 32-bit pattern.
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, &ParseError{Command: resp.Command, Field: "call result", Output: line, Err: err}
		}
		if v > 0xFFFFFFFF || v < -0x80000000 {
			return 0, &ParseError{
				Command: resp.Command,
				Field:   "call result",
				Output:  line,
				Err:     fmt.Errorf("value %d does not fit in 32 bits", v),
			}
		}
		return uint32(v), nil
	}
	return 0, &ParseError{
		Command: resp.Command,
		Field:   "call result",
		Output:  resp.Text(),
		Err:     fmt.Errorf("no line matched %q", p.grammar.CallResult),
	}
}

// DetectFailure scans a response for lines the debugger emits when a
// command failed. Returns an ExecutionError naming the offending line,
// or nil.
func (p *Parser) DetectFailure(resp *Response) error {
	for _, line := range resp.Lines {
		for _, re := range p.failures {
			if re.MatchString(line) {
				return &ExecutionError{Command: resp.Command, Line: line}
			}
		}
	}
	return nil
}

func parseHex(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return strconv.ParseUint(s, 16, 64)
}
