// Package workload reads the per-core memory access traces that drive a
// simulation.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Op is the kind of a memory access.
type Op int

// Access kinds.
const (
	Read Op = iota
	Write
)

func (o Op) String() string {
	switch o {
	case Read:
		return "R"
	case Write:
		return "W"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// An Access is one entry of a trace.
type Access struct {
	Op      Op
	Address uint64
}

// A ParseError reports a malformed trace line.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}

	return fmt.Sprintf("%s:%d: cannot parse %q: %v", path, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a trace. Each line is an operation (R or W) followed by an
// address of up to 32 bits in hex. Blank lines and lines starting with # are
// skipped.
func Parse(r io.Reader) ([]Access, error) {
	return parse(r, "")
}

// LoadFile reads the trace stored at path.
func LoadFile(path string) ([]Access, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	return parse(f, path)
}

// TraceFileName returns the name of the trace of a core in an application.
func TraceFileName(prefix string, core int) string {
	return fmt.Sprintf("%s_proc%d.trace", prefix, core)
}

// LoadApp reads the traces of all the cores of an application. Core N reads
// from <prefix>_procN.trace.
func LoadApp(prefix string, numCores int) ([][]Access, error) {
	traces := make([][]Access, numCores)

	for i := 0; i < numCores; i++ {
		t, err := LoadFile(TraceFileName(prefix, i))
		if err != nil {
			return nil, err
		}

		traces[i] = t
	}

	return traces, nil
}

func parse(r io.Reader, path string) ([]Access, error) {
	var accesses []Access

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		access, err := parseLine(text)
		if err != nil {
			return nil, &ParseError{
				Path: path,
				Line: lineNo,
				Text: text,
				Err:  err,
			}
		}

		accesses = append(accesses, access)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	return accesses, nil
}

func parseLine(text string) (Access, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Access{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}

	var access Access

	switch strings.ToUpper(fields[0]) {
	case "R":
		access.Op = Read
	case "W":
		access.Op = Write
	default:
		return Access{}, fmt.Errorf("unknown operation %q", fields[0])
	}

	addr := strings.TrimPrefix(strings.ToLower(fields[1]), "0x")
	if addr == "" || len(addr) > 8 {
		return Access{}, fmt.Errorf("address must have 1 to 8 hex digits")
	}

	v, err := strconv.ParseUint(addr, 16, 32)
	if err != nil {
		return Access{}, err
	}

	access.Address = v

	return access, nil
}
