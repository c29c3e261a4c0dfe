package interp

import (
	"fmt"

	"github.com/intslang/ints/syntax"
)

// ---------------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------------

// binding is a single scope entry holding either a value or a function
// definition. Values and functions share one namespace; exactly one of
// the fields is set.
type binding struct {
	value *Value
	fn    *syntax.FuncDecl
}

// scope is a chain of name bindings. Lookups walk toward the root.
type scope struct {
	parent   *scope
	bindings map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, bindings: make(map[string]binding)}
}

func (s *scope) has(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

func (s *scope) hasRecursive(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.has(name) {
			return true
		}
	}
	return false
}

func (s *scope) lookup(name string) (binding, error) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.bindings[name]; ok {
			return b, nil
		}
	}
	return binding{}, fmt.Errorf("Undefined variable: %s", name)
}

// set rebinds an existing name in the nearest scope that defines it.
// The new binding replaces the old one wholesale, so an assignment may
// change a value's length or shadow a function.
func (s *scope) set(name string, b binding) error {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.has(name) {
			sc.bindings[name] = b
			return nil
		}
	}
	return fmt.Errorf("Undefined variable for assignment: %s", name)
}

// define binds a name in this scope, replacing any local binding of
// the same name.
func (s *scope) define(name string, b binding) {
	s.bindings[name] = b
}
