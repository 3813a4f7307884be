package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pointpipe/internal/stage"
)

func builtinLikeFactory() *Factory {
	f := New()
	f.RegisterReader("drivers.las.reader", fakeConstructor("drivers.las.reader", "", stage.KindReader))
	f.RegisterReader("drivers.text.reader", fakeConstructor("drivers.text.reader", "", stage.KindReader))
	f.RegisterWriter("drivers.las.writer", fakeConstructor("drivers.las.writer", "", stage.KindWriter))
	f.RegisterWriter("drivers.text.writer", fakeConstructor("drivers.text.writer", "", stage.KindWriter))
	return f
}

func TestInferReaderDriver(t *testing.T) {
	f := builtinLikeFactory()

	testCases := []struct {
		filename string
		want     string
	}{
		{"tile.las", "drivers.las.reader"},
		{"tile.LAZ", "drivers.las.reader"},
		{"flight.bin", "drivers.terrasolid.reader"},
		{"swath.qi", "readers.qfit"},
		{"traj.sbet", "readers.sbet"},
		{"plain.txt", "drivers.text.reader"},
		{"plain.csv", "drivers.text.reader"},
		{"tile.unknown", ""},
		{"noextension", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.want, f.InferReaderDriver(tc.filename))
		})
	}
}

func TestInferReaderDriver_HTTPNeedsRemoteDriver(t *testing.T) {
	f := builtinLikeFactory()
	assert.Equal(t, "", f.InferReaderDriver("http://example.com/resource"),
		"an http source stays unresolved until the remote reader is registered")

	f.RegisterReader("drivers.greyhound.reader", fakeConstructor("drivers.greyhound.reader", "", stage.KindReader))
	assert.Equal(t, "drivers.greyhound.reader", f.InferReaderDriver("http://example.com/resource"))
	assert.Equal(t, "drivers.greyhound.reader", f.InferReaderDriver("HTTPS://example.com/resource"))
	assert.Equal(t, "drivers.greyhound.reader", f.InferReaderDriver("remote.greyhound"))
}

func TestInferReaderDriver_ProbeGatedExtensions(t *testing.T) {
	f := builtinLikeFactory()
	assert.Equal(t, "", f.InferReaderDriver("scan.rxp"))
	assert.Equal(t, "", f.InferReaderDriver("image.nitf"))

	f.RegisterReader("drivers.rxp.reader", fakeConstructor("drivers.rxp.reader", "", stage.KindReader))
	f.RegisterReader("drivers.nitf.reader", fakeConstructor("drivers.nitf.reader", "", stage.KindReader))

	assert.Equal(t, "drivers.rxp.reader", f.InferReaderDriver("scan.rxp"))
	assert.Equal(t, "drivers.nitf.reader", f.InferReaderDriver("image.nitf"))
	assert.Equal(t, "drivers.nitf.reader", f.InferReaderDriver("image.ntf"))
	assert.Equal(t, "drivers.nitf.reader", f.InferReaderDriver("image.nsf"))
}

func TestInferWriterDriver(t *testing.T) {
	f := builtinLikeFactory()

	testCases := []struct {
		filename string
		want     string
	}{
		{"out.las", "drivers.las.writer"},
		{"out.laz", "drivers.las.writer"},
		{"out.csv", "drivers.text.writer"},
		{"out.json", "drivers.text.writer"},
		{"out.xyz", "drivers.text.writer"},
		{"STDOUT", "drivers.text.writer"},
		{"stdout", "drivers.text.writer"},
		{"out.unknown", "drivers.text.writer"},
		{"noextension", "drivers.text.writer"},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.want, f.InferWriterDriver(tc.filename))
		})
	}
}

func TestInferWriterOptionsChanges(t *testing.T) {
	f := builtinLikeFactory()

	t.Run("compressed las enables compression", func(t *testing.T) {
		opts := f.InferWriterOptionsChanges("out.laz")
		comp, err := opts.Bool("compression")
		require.NoError(t, err)
		assert.True(t, comp)
		fn, err := opts.String("filename")
		require.NoError(t, err)
		assert.Equal(t, "out.laz", fn)
	})

	t.Run("plain las carries only the filename", func(t *testing.T) {
		opts := f.InferWriterOptionsChanges("out.las")
		assert.False(t, opts.Has("compression"))
		assert.True(t, opts.Has("filename"))
	})

	t.Run("pcd format needs the pcd writer", func(t *testing.T) {
		opts := f.InferWriterOptionsChanges("out.pcd")
		assert.False(t, opts.Has("format"))

		f.RegisterWriter("drivers.pcd.writer", fakeConstructor("drivers.pcd.writer", "", stage.KindWriter))
		opts = f.InferWriterOptionsChanges("out.pcd")
		format, err := opts.String("format")
		require.NoError(t, err)
		assert.Equal(t, "PCD", format)
	})
}
