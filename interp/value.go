package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/intslang/ints/syntax"
)

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

// Value is a runtime array of integer cells. Every value a program
// produces is such an array; there are no scalars.
//
// A value is either growable or fixed. A growable value remembers a
// minimum length and accepts any source at least that long when bound
// through a descriptor. A fixed value has an exact length that a bound
// source must match. Array literals, string literals, and the results
// of read and getchar are growable; slices, arithmetic, and method
// results are fixed.
type Value struct {
	cells []int64
	grow  bool
	min   int64
}

// NewGrowable returns a growable value holding a copy of cells, with
// its minimum set to the current length.
func NewGrowable(cells []int64) Value {
	return Value{cells: cloneCells(cells), grow: true, min: int64(len(cells))}
}

// NewFixed returns a fixed value holding a copy of cells.
func NewFixed(cells []int64) Value {
	return Value{cells: cloneCells(cells), min: int64(len(cells))}
}

// FromText returns a growable value holding the bytes of s, one cell
// per byte.
func FromText(s string) Value {
	cells := make([]int64, len(s))
	for i := 0; i < len(s); i++ {
		cells[i] = int64(s[i])
	}
	return Value{cells: cells, grow: true, min: int64(len(cells))}
}

// Size returns the number of cells.
func (v Value) Size() int64 { return int64(len(v.cells)) }

// Growable reports whether the value accepts sources longer than its
// minimum when bound through a descriptor.
func (v Value) Growable() bool { return v.grow }

// Minimum returns the growth floor of a growable value, or the exact
// length of a fixed one.
func (v Value) Minimum() int64 { return v.min }

// Cells returns a copy of the underlying cells.
func (v Value) Cells() []int64 { return cloneCells(v.cells) }

// Text returns the cells reinterpreted as bytes. Cells are truncated
// to their low byte, mirroring how string literals become cells.
func (v Value) Text() string {
	b := make([]byte, len(v.cells))
	for i, c := range v.cells {
		b[i] = byte(c)
	}
	return string(b)
}

// String renders the cells in array form, for example "[ 1, 2, 3 ]".
func (v Value) String() string {
	var sb strings.Builder
	sb.WriteString("[ ")
	for i, c := range v.cells {
		sb.WriteString(strconv.FormatInt(c, 10))
		if i+1 < len(v.cells) {
			sb.WriteString(", ")
		}
	}
	sb.WriteString(" ]")
	return sb.String()
}

func (v Value) clone() Value {
	return Value{cells: cloneCells(v.cells), grow: v.grow, min: v.min}
}

func cloneCells(cells []int64) []int64 {
	out := make([]int64, len(cells))
	copy(out, cells)
	return out
}

// ---------------------------------------------------------------------------
// Descriptor binding
// ---------------------------------------------------------------------------

// FromDescriptor builds the value a descriptor declares, optionally
// initialized from src. Declarations with an initializer and function
// parameter binding go through here; plain assignment replaces a
// binding wholesale and never consults the declared descriptor.
//
// A growable descriptor starts empty with its minimum taken from the
// declared size; without an initializer a non-zero minimum cannot be
// met and fails. A sized fixed descriptor starts zero filled. A bare
// [] adopts src as is, keeping its growable or fixed nature, and is an
// error without one.
func FromDescriptor(desc syntax.Descriptor, src *Value) (Value, error) {
	if desc.Grow {
		dest := Value{cells: []int64{}, grow: true}
		if desc.HasSize {
			dest.min = desc.Size
		}
		if src == nil {
			if dest.min > 0 {
				return Value{}, fmt.Errorf("Cannot set value. Destination minimum is larger than the sources length")
			}
			return dest, nil
		}
		if err := dest.assign(*src); err != nil {
			return Value{}, err
		}
		return dest, nil
	}
	if desc.HasSize {
		dest := Value{cells: make([]int64, desc.Size), min: desc.Size}
		if src != nil {
			if err := dest.assign(*src); err != nil {
				return Value{}, err
			}
		}
		return dest, nil
	}
	if src == nil {
		return Value{}, fmt.Errorf("Static array cannot be defined without a value")
	}
	return src.clone(), nil
}

// assign copies src into v under the binding compatibility rules. The
// destination keeps its growable or fixed nature and its minimum.
func (v *Value) assign(src Value) error {
	if v.grow {
		if src.grow {
			if v.min > src.Size() {
				return fmt.Errorf("Cannot set value. Destination minimum is larger than the sources length")
			}
			v.cells = cloneCells(src.cells)
			return nil
		}
		if v.min > src.min {
			return fmt.Errorf("Cannot set value. Destination minimum (%d) is larger than the sources length (%d)", v.min, src.min)
		}
		// Overwrite in place, zero padding when src is shorter than
		// the current cells and extending when it is longer.
		for i := range v.cells {
			if i < len(src.cells) {
				v.cells[i] = src.cells[i]
			} else {
				v.cells[i] = 0
			}
		}
		for i := len(v.cells); i < len(src.cells); i++ {
			v.cells = append(v.cells, src.cells[i])
		}
		return nil
	}
	if v.min != src.Size() {
		return fmt.Errorf("Cannot set value. Destination length is not equal to the sources length")
	}
	copy(v.cells, src.cells)
	return nil
}

// descriptorFits reports whether a value of the given length could
// bind the descriptor. This is the match rule for declaration
// conditions; a bare [] never matches.
func descriptorFits(d syntax.Descriptor, size int64) bool {
	if d.HasSize && d.Size == size {
		return true
	}
	return d.Grow && (!d.HasSize || d.Size < size)
}

// ---------------------------------------------------------------------------
// Arithmetic and comparison
// ---------------------------------------------------------------------------

var binOpVerbs = map[syntax.BinOp]string{
	syntax.OpAdd: "add",
	syntax.OpSub: "subtract",
	syntax.OpMul: "multiply",
	syntax.OpDiv: "divide",
}

// Apply evaluates the elementwise arithmetic v op o. The operands must
// have the same size. Division truncates toward zero.
func (v Value) Apply(op syntax.BinOp, o Value) (Value, error) {
	if v.Size() != o.Size() {
		return Value{}, fmt.Errorf("Cannot %s arrays with different sizes", binOpVerbs[op])
	}
	cells := make([]int64, len(v.cells))
	for i := range cells {
		a, b := v.cells[i], o.cells[i]
		switch op {
		case syntax.OpAdd:
			cells[i] = a + b
		case syntax.OpSub:
			cells[i] = a - b
		case syntax.OpMul:
			cells[i] = a * b
		case syntax.OpDiv:
			if b == 0 {
				return Value{}, fmt.Errorf("Cannot divide by zero")
			}
			cells[i] = a / b
		}
	}
	return Value{cells: cells, min: int64(len(cells))}, nil
}

// Compare evaluates v op o. Arrays of different sizes compare false
// under every operator. Each operator requires every cell pair to
// satisfy it, so inequality means every pair differs, not the negation
// of equality.
func (v Value) Compare(op syntax.CompareOp, o Value) bool {
	if v.Size() != o.Size() {
		return false
	}
	for i := range v.cells {
		a, b := v.cells[i], o.cells[i]
		var ok bool
		switch op {
		case syntax.OpEq:
			ok = a == b
		case syntax.OpNe:
			ok = a != b
		case syntax.OpLt:
			ok = a < b
		case syntax.OpLe:
			ok = a <= b
		case syntax.OpGt:
			ok = a > b
		case syntax.OpGe:
			ok = a >= b
		}
		if !ok {
			return false
		}
	}
	return true
}

// Slice returns the fixed subarray [start, end). Bounds are validated
// by the caller.
func (v Value) Slice(start, end int64) Value {
	cells := make([]int64, end-start)
	copy(cells, v.cells[start:end])
	return Value{cells: cells, min: end - start}
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

func applyAppend(v Value, args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("append expects 1 argument with type []")
	}
	cells := make([]int64, 0, len(v.cells)+len(args[0].cells))
	cells = append(cells, v.cells...)
	cells = append(cells, args[0].cells...)
	return Value{cells: cells, min: int64(len(cells))}, nil
}

func applySqrt(v Value, args []Value) (Value, error) {
	if len(args) != 0 {
		return Value{}, fmt.Errorf("sqrt expects 0 arguments")
	}
	cells := make([]int64, len(v.cells))
	for i, c := range v.cells {
		if c < 0 {
			return Value{}, fmt.Errorf("Cannot take the square root of a negative value")
		}
		cells[i] = int64(math.Sqrt(float64(c)))
	}
	return Value{cells: cells, min: int64(len(cells))}, nil
}

func applySize(v Value, args []Value) (Value, error) {
	if len(args) != 0 {
		return Value{}, fmt.Errorf("size expects 0 arguments")
	}
	return NewFixed([]int64{v.Size()}), nil
}
