// Package argv implements the flat argument-buffer protocol shared between
// the CLI and interpreted scripts: a script's argv is a single integer array
// in which each argument is stored as a length prefix followed by that many
// byte cells. The first argument, by convention, names the script file.
package argv

import (
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// Argument gate
// ---------------------------------------------------------------------------

// GateResult is the outcome of the argument gate.
type GateResult int

const (
	// Proceed means enough arguments were supplied to continue.
	Proceed GateResult = iota
	// Abort means the usage line was printed and the process should exit
	// without invoking the decoder or the interpreter.
	Abort
)

// String returns a human-readable name for the gate result.
func (r GateResult) String() string {
	switch r {
	case Proceed:
		return "proceed"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("GateResult(%d)", int(r))
	}
}

// Usage is the exact diagnostic line printed when no script is named.
const Usage = "Usage: <filename> [args...]\n"

// CheckArguments validates that at least one operand follows the program
// name. count is the number of operands; w receives the usage line on the
// failure path. The write happens at most once and only when the result is
// Abort.
func CheckArguments(count int, w io.Writer) GateResult {
	if count < 1 {
		io.WriteString(w, Usage)
		return Abort
	}
	return Proceed
}

// ---------------------------------------------------------------------------
// Buffer codec
// ---------------------------------------------------------------------------

// OutOfRangeError reports a length prefix that is inconsistent with the size
// of the buffer carrying it.
type OutOfRangeError struct {
	Prefix    int64 // the offending length prefix
	BufferLen int   // total cells in the buffer, including the prefix cell
}

func (e *OutOfRangeError) Error() string {
	if e.BufferLen == 0 {
		return "length prefix out of range: empty argument buffer"
	}
	return fmt.Sprintf("length prefix %d out of range for argument buffer of %d cells",
		e.Prefix, e.BufferLen)
}

// Encode flattens ordered arguments into a single buffer of
// [len(a), a bytes..., len(b), b bytes..., ...] cells. Encoding no arguments
// yields an empty buffer.
func Encode(args []string) []int64 {
	n := 0
	for _, arg := range args {
		n += 1 + len(arg)
	}
	buffer := make([]int64, 0, n)
	for _, arg := range args {
		buffer = append(buffer, int64(len(arg)))
		for i := 0; i < len(arg); i++ {
			buffer = append(buffer, int64(arg[i]))
		}
	}
	return buffer
}

// Decode reads the length prefix at buffer[0] and splits the remainder into
// the file name it delimits and the residual cells that follow. The residual
// and the file name partition buffer[1:] exactly; the buffer itself is never
// modified. A prefix that is negative or larger than the available cells
// fails with *OutOfRangeError and produces no partial output.
func Decode(buffer []int64) (fileName string, residual []int64, err error) {
	if len(buffer) == 0 {
		return "", nil, &OutOfRangeError{BufferLen: 0}
	}
	prefix := buffer[0]
	if prefix < 0 || prefix > int64(len(buffer)-1) {
		return "", nil, &OutOfRangeError{Prefix: prefix, BufferLen: len(buffer)}
	}
	name := make([]byte, prefix)
	for i := range name {
		name[i] = byte(buffer[1+i])
	}
	return string(name), buffer[1+prefix:], nil
}

// DecodeAll recovers the full argument list from a buffer of consecutive
// length-prefixed arguments. A malformed prefix anywhere in the buffer fails
// with *OutOfRangeError and no partial result.
func DecodeAll(buffer []int64) ([]string, error) {
	var args []string
	rest := buffer
	for len(rest) > 0 {
		arg, tail, err := Decode(rest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		rest = tail
	}
	return args, nil
}
