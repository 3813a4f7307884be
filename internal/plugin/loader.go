// Package plugin discovers dynamic stage libraries on configured search
// paths and binds their registration entry points into a factory.
//
// The file naming convention and the derived symbol names are an external
// ABI shared with plugin authors and must not change:
//
//	libpdal_plugin_<stagekind>_<name>[.<version>].<ext>
//	PDALRegister_<stagekind>_<name>
//	PDALRegister_version_<stagekind>_<name>
package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/pointpipe/internal/ctxlog"
	"github.com/vk/pointpipe/internal/factory"
)

const (
	// EnvDriverPath names the environment variable holding the
	// colon-separated plugin search paths.
	EnvDriverPath = "PDAL_DRIVER_PATH"

	// namePrefix marks a shared library as a plugin candidate.
	namePrefix = "libpdal_plugin"

	registerTag = "PDALRegister_"
	versionTag  = "PDALRegister_version_"
)

// defaultSearchPaths is used when the environment variable is unset or
// empty.
var defaultSearchPaths = []string{"/usr/local/lib", "./lib"}

// sharedLibExts are the platform shared-library extensions accepted for
// candidates, matched case-insensitively.
var sharedLibExts = map[string]bool{
	".so":    true,
	".dylib": true,
	".dll":   true,
}

// RegisterFunc is a plugin's registration entry point. It receives the
// factory it must populate explicitly; plugins never reach for globals.
type RegisterFunc func(f *factory.Factory)

// Binder is the dynamic-loader collaborator. It opens the library at path,
// resolves both named symbols, and returns the registration entry point.
type Binder interface {
	Bind(path, registerSymbol, versionSymbol string) (RegisterFunc, error)
}

// Loader scans search paths for plugin libraries and registers each one it
// can bind.
type Loader struct {
	binder Binder
	paths  []string
}

// NewLoader creates a loader using the search paths from the environment,
// falling back to the conventional defaults.
func NewLoader(binder Binder) *Loader {
	return &Loader{binder: binder, paths: SearchPaths()}
}

// NewLoaderWithPaths creates a loader with explicit search paths.
func NewLoaderWithPaths(binder Binder, paths []string) *Loader {
	return &Loader{binder: binder, paths: paths}
}

// SearchPaths reports the loader's configured search paths.
func (l *Loader) SearchPaths() []string {
	return l.paths
}

// SearchPaths resolves the plugin search-path list from the environment.
func SearchPaths() []string {
	raw := os.Getenv(EnvDriverPath)
	if raw == "" {
		return defaultSearchPaths
	}
	var paths []string
	for _, p := range strings.Split(raw, ":") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return defaultSearchPaths
	}
	return paths
}

// LoadAll discovers every plugin under the loader's search paths and binds
// it into f. A candidate that fails to open or resolve is logged and
// skipped; discovery of the remaining candidates continues.
func (l *Loader) LoadAll(ctx context.Context, f *factory.Factory) {
	logger := ctxlog.FromContext(ctx)

	for _, dir := range l.paths {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		for basename, path := range scanDir(dir) {
			register, err := l.bind(basename, path)
			if err != nil {
				logger.Warn("skipping plugin", "path", path, "error", err)
				continue
			}
			logger.Debug("registering plugin", "path", path, "basename", basename)
			register(f)
		}
	}
}

// bind derives both symbol names from the canonical basename and hands the
// library to the binder.
func (l *Loader) bind(basename, path string) (RegisterFunc, error) {
	registerSym, versionSym := SymbolNames(basename)
	return l.binder.Bind(path, registerSym, versionSym)
}

// SymbolNames derives the registration and version-check entry-point names
// for a plugin's canonical basename. The prefix is stripped
// case-insensitively, matching the candidate filter.
func SymbolNames(basename string) (registerSymbol, versionSymbol string) {
	short := basename
	if p := namePrefix + "_"; len(short) >= len(p) && strings.EqualFold(short[:len(p)], p) {
		short = short[len(p):]
	}
	return registerTag + short, versionTag + short
}

// scanDir enumerates a directory and returns the surviving candidate path
// per canonical basename. Among files sharing a basename a symbolic link
// replaces a previously seen regular file, whatever the enumeration order.
func scanDir(dir string) map[string]string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	chosen := make(map[string]string)
	isLink := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(strings.ToLower(name), namePrefix) {
			continue
		}
		if !sharedLibExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		path := filepath.Join(dir, name)
		basename := CanonicalBasename(name)
		symlink := e.Type()&os.ModeSymlink != 0

		if _, seen := chosen[basename]; !seen || (symlink && !isLink[basename]) {
			chosen[basename] = path
			isLink[basename] = symlink
		}
	}
	return chosen
}

// CanonicalBasename strips trailing extension components iteratively until
// the remaining stem has none of its own, so "libpdal_plugin_writer_x.0.so"
// and "libpdal_plugin_writer_x.so" collapse to the same name.
func CanonicalBasename(name string) string {
	base := filepath.Base(name)
	for {
		ext := filepath.Ext(base)
		if ext == "" || ext == base {
			return base
		}
		base = strings.TrimSuffix(base, ext)
	}
}
