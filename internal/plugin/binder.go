package plugin

import (
	"fmt"
	goplugin "plugin"

	"github.com/vk/pointpipe/internal/factory"
)

// VersionFunc is the shape of a plugin's version-check entry point.
type VersionFunc func() string

// GoBinder binds plugins built with the Go toolchain's plugin build mode.
// Both well-known symbols must resolve: the registration entry point as a
// RegisterFunc-shaped function and the version entry point as VersionFunc.
type GoBinder struct{}

// Bind implements Binder.
func (GoBinder) Bind(path, registerSymbol, versionSymbol string) (RegisterFunc, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	versionSym, err := p.Lookup(versionSymbol)
	if err != nil {
		return nil, fmt.Errorf("resolve %s in %s: %w", versionSymbol, path, err)
	}
	if _, ok := versionSym.(func() string); !ok {
		return nil, fmt.Errorf("symbol %s in %s has type %T, want func() string", versionSymbol, path, versionSym)
	}

	registerSym, err := p.Lookup(registerSymbol)
	if err != nil {
		return nil, fmt.Errorf("resolve %s in %s: %w", registerSymbol, path, err)
	}
	register, ok := registerSym.(func(*factory.Factory))
	if !ok {
		return nil, fmt.Errorf("symbol %s in %s has type %T, want func(*factory.Factory)", registerSymbol, path, registerSym)
	}
	return RegisterFunc(register), nil
}
