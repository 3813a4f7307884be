package qfit

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// writeQFIT renders a file with the given word count per record: a leading
// length record followed by the data records.
func writeQFIT(t *testing.T, file string, order binary.ByteOrder, wordCount int, records [][]int32) {
	t.Helper()
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()

	lengthRecord := make([]int32, wordCount)
	lengthRecord[0] = int32(wordCount * 4)
	require.NoError(t, binary.Write(f, order, lengthRecord))
	for _, rec := range records {
		require.Len(t, rec, wordCount)
		require.NoError(t, binary.Write(f, order, rec))
	}
}

func read(t *testing.T, file string) (*Reader, point.ViewSet) {
	t.Helper()
	ctx := context.Background()
	r := NewReader()
	stage.SetOptions(r, options.New(options.Option{Name: "filename", Value: file}))
	table := point.NewTable()
	require.NoError(t, stage.Prepare(ctx, r, table))
	views, err := stage.Execute(ctx, r, table)
	require.NoError(t, err)
	return r, views
}

func TestReader_DecodesRecords(t *testing.T) {
	for _, tc := range []struct {
		name  string
		order binary.ByteOrder
	}{
		{"little endian", binary.LittleEndian},
		{"big endian", binary.BigEndian},
	} {
		t.Run(tc.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "swath.qi")
			writeQFIT(t, file, tc.order, 12, [][]int32{
				{123456, 44123456, -93987654, 250500, 0, 870, 0, 0, 0, 0, 0, 0},
				{123457, 44123500, -93987600, 251000, 0, 900, 0, 0, 0, 0, 0, 0},
			})

			_, views := read(t, file)
			require.Len(t, views, 1)
			v := views[0]
			require.Equal(t, 2, v.Len())

			assert.InDelta(t, 123.456, v.GetField(point.DimGpsTime, 0), 1e-9)
			assert.InDelta(t, 44.123456, v.GetField(point.DimY, 0), 1e-9)
			assert.InDelta(t, -93.987654, v.GetField(point.DimX, 0), 1e-9)
			assert.InDelta(t, 250.5, v.GetField(point.DimZ, 0), 1e-9)
			assert.Equal(t, 870.0, v.GetField(point.DimIntensity, 0))
			assert.Equal(t, 900.0, v.GetField(point.DimIntensity, 1))
		})
	}
}

func TestReader_RejectsMalformedFiles(t *testing.T) {
	t.Run("truncated record", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "short.qi")
		var buf [50]byte
		binary.LittleEndian.PutUint32(buf[:4], 48)
		require.NoError(t, os.WriteFile(file, buf[:], 0o644))

		r := NewReader()
		stage.SetOptions(r, options.New(options.Option{Name: "filename", Value: file}))
		err := stage.Prepare(context.Background(), r, point.NewTable())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a multiple")
	})

	t.Run("implausible length in both byte orders", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "bad.qi")
		require.NoError(t, os.WriteFile(file, []byte{0xff, 0xff, 0xff, 0xff}, 0o644))

		r := NewReader()
		stage.SetOptions(r, options.New(options.Option{Name: "filename", Value: file}))
		err := stage.Prepare(context.Background(), r, point.NewTable())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid QFIT record length")
	})
}
