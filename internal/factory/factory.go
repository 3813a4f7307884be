// Package factory implements the stage registry: three independent tables
// mapping dotted driver names to constructors for readers, filters, and
// writers, plus filename-driven driver inference.
package factory

import (
	"github.com/pkg/errors"

	"github.com/vk/pointpipe/internal/stage"
)

// Constructor builds a new, caller-owned stage instance.
type Constructor func() stage.Stage

// Module registers one or more drivers with a factory. Builtin driver
// packages implement it; plugin registration entry points have the same
// shape.
type Module interface {
	Register(f *Factory)
}

// Factory is the process-wide driver registry. Its tables are populated
// single-threaded at startup (builtins, then plugins) and treated as
// read-only once pipeline execution begins.
type Factory struct {
	readers map[string]Constructor
	filters map[string]Constructor
	writers map[string]Constructor
}

// New creates a factory and registers the given modules in order.
func New(mods ...Module) *Factory {
	f := &Factory{
		readers: make(map[string]Constructor),
		filters: make(map[string]Constructor),
		writers: make(map[string]Constructor),
	}
	for _, m := range mods {
		m.Register(f)
	}
	return f
}

// RegisterReader adds a reader constructor. Re-registering a name replaces
// the prior constructor.
func (f *Factory) RegisterReader(name string, c Constructor) {
	f.readers[name] = c
}

// RegisterFilter adds a filter constructor, replacing any prior one.
func (f *Factory) RegisterFilter(name string, c Constructor) {
	f.filters[name] = c
}

// RegisterWriter adds a writer constructor, replacing any prior one.
func (f *Factory) RegisterWriter(name string, c Constructor) {
	f.writers[name] = c
}

// HasReader probes the reader table without constructing anything.
func (f *Factory) HasReader(name string) bool {
	_, ok := f.readers[name]
	return ok
}

// HasFilter probes the filter table.
func (f *Factory) HasFilter(name string) bool {
	_, ok := f.filters[name]
	return ok
}

// HasWriter probes the writer table.
func (f *Factory) HasWriter(name string) bool {
	_, ok := f.writers[name]
	return ok
}

// CreateReader constructs the named reader.
func (f *Factory) CreateReader(name string) (stage.Stage, error) {
	c, ok := f.readers[name]
	if !ok {
		return nil, errors.Errorf("unable to create reader for type %q: does a driver with this type name exist?", name)
	}
	return c(), nil
}

// CreateFilter constructs the named filter.
func (f *Factory) CreateFilter(name string) (stage.Stage, error) {
	c, ok := f.filters[name]
	if !ok {
		return nil, errors.Errorf("unable to create filter for type %q: does a driver with this type name exist?", name)
	}
	return c(), nil
}

// CreateWriter constructs the named writer.
func (f *Factory) CreateWriter(name string) (stage.Stage, error) {
	c, ok := f.writers[name]
	if !ok {
		return nil, errors.Errorf("unable to create writer for type %q: does a driver with this type name exist?", name)
	}
	return c(), nil
}

// Create constructs a stage of the given kind.
func (f *Factory) Create(kind stage.Kind, name string) (stage.Stage, error) {
	switch kind {
	case stage.KindReader:
		return f.CreateReader(name)
	case stage.KindFilter:
		return f.CreateFilter(name)
	case stage.KindWriter:
		return f.CreateWriter(name)
	default:
		return nil, errors.Errorf("unknown stage kind %d", kind)
	}
}
