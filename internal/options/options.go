// Package options implements the typed configuration set stages consume.
//
// An option is a named value. Sets preserve insertion order, look up by
// name, and support the conditional merge callers use to supply defaults
// without clobbering explicit settings.
package options

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by the erroring getters when no option with the
// requested name exists. Callers that tolerate absence probe for it with
// errors.Is.
var ErrNotFound = errors.New("option not found")

// Option is a single named configuration value.
type Option struct {
	Name  string
	Value any
}

// Set is an ordered collection of options. The zero value is not usable;
// construct with New.
type Set struct {
	opts  []Option
	index map[string]int
}

// New creates an option set, optionally seeded with initial options.
func New(opts ...Option) *Set {
	s := &Set{index: make(map[string]int)}
	for _, o := range opts {
		s.Add(o.Name, o.Value)
	}
	return s
}

// Add sets an option, replacing any existing option of the same name.
func (s *Set) Add(name string, value any) {
	if i, ok := s.index[name]; ok {
		s.opts[i].Value = value
		return
	}
	s.index[name] = len(s.opts)
	s.opts = append(s.opts, Option{Name: name, Value: value})
}

// AddConditional adds every option from other whose name is not already
// present in the set.
func (s *Set) AddConditional(other *Set) {
	if other == nil {
		return
	}
	for _, o := range other.opts {
		if !s.Has(o.Name) {
			s.Add(o.Name, o.Value)
		}
	}
}

// Has reports whether an option with the given name exists.
func (s *Set) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Get returns the raw value of the named option.
func (s *Set) Get(name string) (any, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.opts[i].Value, true
}

// Options returns the options in insertion order.
func (s *Set) Options() []Option {
	out := make([]Option, len(s.opts))
	copy(out, s.opts)
	return out
}

// Len returns the number of options in the set.
func (s *Set) Len() int { return len(s.opts) }

// String returns the named option as a string. A missing option yields
// ErrNotFound; a present option of another type is a hard failure.
func (s *Set) String(name string) (string, error) {
	return typed[string](s, name)
}

// StringDefault returns the named option as a string, or def when absent.
func (s *Set) StringDefault(name, def string) (string, error) {
	return typedDefault(s, name, def)
}

// Bool returns the named option as a bool.
func (s *Set) Bool(name string) (bool, error) {
	return typed[bool](s, name)
}

// BoolDefault returns the named option as a bool, or def when absent.
func (s *Set) BoolDefault(name string, def bool) (bool, error) {
	return typedDefault(s, name, def)
}

// Uint returns the named option as an unsigned integer.
func (s *Set) Uint(name string) (uint, error) {
	return uintValue(s, name)
}

// UintDefault returns the named option as an unsigned integer, or def when
// absent.
func (s *Set) UintDefault(name string, def uint) (uint, error) {
	if !s.Has(name) {
		return def, nil
	}
	return uintValue(s, name)
}

// Float returns the named option as a float64.
func (s *Set) Float(name string) (float64, error) {
	return floatValue(s, name)
}

// FloatDefault returns the named option as a float64, or def when absent.
func (s *Set) FloatDefault(name string, def float64) (float64, error) {
	if !s.Has(name) {
		return def, nil
	}
	return floatValue(s, name)
}

func typed[T any](s *Set, name string) (T, error) {
	var zero T
	raw, ok := s.Get(name)
	if !ok {
		return zero, fmt.Errorf("option %q: %w", name, ErrNotFound)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("option %q holds %T, not %T", name, raw, zero)
	}
	return v, nil
}

func typedDefault[T any](s *Set, name string, def T) (T, error) {
	if !s.Has(name) {
		return def, nil
	}
	return typed[T](s, name)
}

// uintValue accepts the integer representations an HCL number decodes to.
func uintValue(s *Set, name string) (uint, error) {
	raw, ok := s.Get(name)
	if !ok {
		return 0, fmt.Errorf("option %q: %w", name, ErrNotFound)
	}
	switch v := raw.(type) {
	case uint:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("option %q: negative value %d", name, v)
		}
		return uint(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("option %q: negative value %d", name, v)
		}
		return uint(v), nil
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return 0, fmt.Errorf("option %q: %v is not an unsigned integer", name, v)
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("option %q holds %T, not an unsigned integer", name, raw)
	}
}

func floatValue(s *Set, name string) (float64, error) {
	raw, ok := s.Get(name)
	if !ok {
		return 0, fmt.Errorf("option %q: %w", name, ErrNotFound)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("option %q holds %T, not a number", name, raw)
	}
}
