package interp

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/intslang/ints/syntax"
)

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

func (in *Interp) callBuiltin(call *syntax.CallExpr, sc *scope) (Value, error) {
	switch call.Name {
	case "print":
		return in.builtinPrint(call, sc)
	case "read":
		return in.builtinRead(call, sc)
	case "getchar":
		return in.builtinGetchar(call, sc)
	case "clear":
		return in.builtinClear(call, sc)
	case "range":
		return in.builtinRange(call, sc)
	case "exit":
		return in.builtinExit(call, sc)
	}
	return Value{}, fmt.Errorf("Undefined function '%s'", call.Name)
}

// builtinPrint writes its argument's cells to stdout as raw bytes.
func (in *Interp) builtinPrint(call *syntax.CallExpr, sc *scope) (Value, error) {
	if len(call.Args) != 1 {
		return Value{}, fmt.Errorf("Function print expected 1 argument but received %d", len(call.Args))
	}
	v, err := in.evalExpr(call.Args[0], sc)
	if err != nil {
		return Value{}, err
	}
	io.WriteString(in.stdout, v.Text())
	return NewFixed(nil), nil
}

// builtinRead loads the named file and returns its bytes as a growable
// array. The name is the argument's cells read as bytes.
func (in *Interp) builtinRead(call *syntax.CallExpr, sc *scope) (Value, error) {
	if len(call.Args) != 1 {
		return Value{}, fmt.Errorf("Function read expected 1 argument but received %d", len(call.Args))
	}
	v, err := in.evalExpr(call.Args[0], sc)
	if err != nil {
		return Value{}, err
	}
	src, err := in.readFile(v.Text())
	if err != nil {
		return Value{}, err
	}
	return FromText(src), nil
}

// builtinGetchar reads one byte from stdin without waiting for a
// newline and returns it as a one cell array, or [-1] at end of input.
// A control-C byte re-raises the interrupt.
func (in *Interp) builtinGetchar(call *syntax.CallExpr, sc *scope) (Value, error) {
	if len(call.Args) != 0 {
		return Value{}, fmt.Errorf("Function getchar expected 0 argument but received %d", len(call.Args))
	}
	ch := in.readChar()
	if ch == 3 {
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			p.Signal(os.Interrupt)
		}
	}
	return NewGrowable([]int64{ch}), nil
}

// readChar reads a single byte, switching a terminal into raw mode for
// the read so a keypress arrives immediately and unechoed.
func (in *Interp) readChar() int64 {
	if f, ok := in.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if state, err := term.MakeRaw(int(f.Fd())); err == nil {
			defer term.Restore(int(f.Fd()), state)
		}
	}
	var buf [1]byte
	if _, err := io.ReadFull(in.stdin, buf[:]); err != nil {
		return -1
	}
	return int64(buf[0])
}

// builtinClear clears the terminal with an ANSI erase sequence and
// homes the cursor.
func (in *Interp) builtinClear(call *syntax.CallExpr, sc *scope) (Value, error) {
	if len(call.Args) != 0 {
		return Value{}, fmt.Errorf("Function clear expected 0 argument but received %d", len(call.Args))
	}
	io.WriteString(in.stdout, "\x1b[2J\x1b[H")
	return NewFixed(nil), nil
}

// builtinRange returns [0, 1, ..., n-1] for a one cell, non-negative
// argument [n].
func (in *Interp) builtinRange(call *syntax.CallExpr, sc *scope) (Value, error) {
	if len(call.Args) != 1 {
		return Value{}, fmt.Errorf("Function range expected 1 argument but received %d", len(call.Args))
	}
	v, err := in.evalExpr(call.Args[0], sc)
	if err != nil {
		return Value{}, err
	}
	if v.Size() != 1 {
		return Value{}, fmt.Errorf("Function range expected 1 argument with size [1] but received [%d]", v.Size())
	}
	n := v.cells[0]
	if n < 0 {
		return Value{}, fmt.Errorf("Function range expected 1 non-negative argument with size [1] but received the value %s", v)
	}
	cells := make([]int64, n)
	for i := range cells {
		cells[i] = int64(i)
	}
	return Value{cells: cells, min: n}, nil
}

// builtinExit unwinds the whole run with the requested exit code.
func (in *Interp) builtinExit(call *syntax.CallExpr, sc *scope) (Value, error) {
	if len(call.Args) != 1 {
		return Value{}, fmt.Errorf("Function exit expected 1 argument but received %d", len(call.Args))
	}
	v, err := in.evalExpr(call.Args[0], sc)
	if err != nil {
		return Value{}, err
	}
	if v.Size() != 1 {
		return Value{}, fmt.Errorf("Function exit expected 1 argument with size [1] but received [%d]", v.Size())
	}
	return Value{}, &ExitError{Code: int(v.cells[0])}
}
