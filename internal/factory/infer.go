package factory

import (
	"path/filepath"
	"strings"

	"github.com/vk/pointpipe/internal/options"
)

const (
	textWriterDriver = "drivers.text.writer"
	greyhoundReader  = "drivers.greyhound.reader"
)

// InferReaderDriver derives a reader driver name from a filename's
// extension. A "filename" beginning with an http scheme selects the
// remote greyhound reader when that driver is registered. Unknown
// extensions map to the empty string.
func (f *Factory) InferReaderDriver(filename string) string {
	if len(filename) >= 4 && strings.EqualFold(filename[:4], "http") && f.HasReader(greyhoundReader) {
		return greyhoundReader
	}

	drivers := map[string]string{
		"las":       "drivers.las.reader",
		"laz":       "drivers.las.reader",
		"bin":       "drivers.terrasolid.reader",
		"qi":        "readers.qfit",
		"bpf":       "drivers.bpf.reader",
		"sbet":      "readers.sbet",
		"icebridge": "drivers.icebridge.reader",
		"sqlite":    "drivers.sqlite.reader",
		"txt":       "drivers.text.reader",
		"csv":       "drivers.text.reader",
	}
	// Offered only when the optional driver made it into the registry.
	if f.HasReader(greyhoundReader) {
		drivers["greyhound"] = greyhoundReader
	}
	if f.HasReader("drivers.nitf.reader") {
		drivers["nitf"] = "drivers.nitf.reader"
		drivers["ntf"] = "drivers.nitf.reader"
		drivers["nsf"] = "drivers.nitf.reader"
	}
	if f.HasReader("drivers.rxp.reader") {
		drivers["rxp"] = "drivers.rxp.reader"
	}
	if f.HasReader("drivers.pcd.reader") {
		drivers["pcd"] = "drivers.pcd.reader"
	}

	ext := extension(filename)
	if ext == "" {
		return ""
	}
	return drivers[ext]
}

// InferWriterDriver derives a writer driver name from a filename's
// extension. The literal destination "STDOUT" (any case) means the
// standard output stream and forces the text writer, which is also the
// fallback whenever no extension is present or recognized.
func (f *Factory) InferWriterDriver(filename string) string {
	drivers := map[string]string{
		"las":    "drivers.las.writer",
		"laz":    "drivers.las.writer",
		"sbet":   "writers.sbet",
		"csv":    textWriterDriver,
		"json":   textWriterDriver,
		"xyz":    textWriterDriver,
		"txt":    textWriterDriver,
		"sqlite": "drivers.sqlite.writer",
	}
	if f.HasWriter("drivers.pcd.writer") {
		drivers["pcd"] = "drivers.pcd.writer"
	}
	if f.HasWriter("drivers.nitf.writer") {
		drivers["ntf"] = "drivers.nitf.writer"
	}

	if strings.EqualFold(filename, "STDOUT") {
		return textWriterDriver
	}
	ext := extension(filename)
	if ext == "" {
		return textWriterDriver
	}
	if driver, ok := drivers[ext]; ok {
		return driver
	}
	return textWriterDriver
}

// InferWriterOptionsChanges derives the option changes a destination
// filename implies: a compressed-LAS extension enables compression, a PCD
// extension forces the PCD format when that writer exists, and the
// filename option itself is always set. The caller merges the result into
// the writer's options.
func (f *Factory) InferWriterOptionsChanges(filename string) *options.Set {
	opts := options.New()

	ext := extension(filename)
	if ext == "laz" {
		opts.Add("compression", true)
	}
	if ext == "pcd" && f.HasWriter("drivers.pcd.writer") {
		opts.Add("format", "PCD")
	}
	opts.Add("filename", filename)
	return opts
}

// extension returns the lowercase filename extension without its dot.
func extension(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
