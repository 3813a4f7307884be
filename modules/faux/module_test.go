package faux

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

func generate(t *testing.T, opts *options.Set) *point.View {
	t.Helper()
	ctx := context.Background()

	r := NewReader()
	stage.SetOptions(r, opts)
	table := point.NewTable()
	require.NoError(t, stage.Prepare(ctx, r, table))
	views, err := stage.Execute(ctx, r, table)
	require.NoError(t, err)
	require.Len(t, views, 1)
	return views[0]
}

func TestReader_RampSpansBounds(t *testing.T) {
	v := generate(t, options.New(
		options.Option{Name: "count", Value: 5},
		options.Option{Name: "bounds", Value: "([0,10],[0,100],[0,1])"},
	))

	require.Equal(t, 5, v.Len())
	assert.Equal(t, 0.0, v.GetField(point.DimX, 0))
	assert.Equal(t, 10.0, v.GetField(point.DimX, 4))
	assert.Equal(t, 50.0, v.GetField(point.DimY, 2))
	assert.Equal(t, 3.0, v.GetField(point.DimGpsTime, 3))
}

func TestReader_ConstantMode(t *testing.T) {
	v := generate(t, options.New(
		options.Option{Name: "count", Value: 3},
		options.Option{Name: "mode", Value: "constant"},
		options.Option{Name: "bounds", Value: "([2,4],[2,4],[2,4])"},
	))

	for i := 0; i < v.Len(); i++ {
		assert.Equal(t, 2.0, v.GetField(point.DimX, i))
		assert.Equal(t, 2.0, v.GetField(point.DimZ, i))
	}
}

func TestReader_RandomModeIsSeeded(t *testing.T) {
	opts := func() *options.Set {
		return options.New(
			options.Option{Name: "count", Value: 10},
			options.Option{Name: "mode", Value: "random"},
			options.Option{Name: "seed", Value: 42},
		)
	}
	a := generate(t, opts())
	b := generate(t, opts())

	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.GetField(point.DimX, i), b.GetField(point.DimX, i))
		assert.GreaterOrEqual(t, a.GetField(point.DimX, i), 0.0)
		assert.LessOrEqual(t, a.GetField(point.DimX, i), 1.0)
	}
}

func TestReader_OptionValidation(t *testing.T) {
	testCases := []struct {
		name string
		opts *options.Set
	}{
		{name: "count is required", opts: options.New()},
		{
			name: "unknown mode",
			opts: options.New(
				options.Option{Name: "count", Value: 1},
				options.Option{Name: "mode", Value: "sideways"},
			),
		},
		{
			name: "malformed bounds",
			opts: options.New(
				options.Option{Name: "count", Value: 1},
				options.Option{Name: "bounds", Value: "nonsense"},
			),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader()
			stage.SetOptions(r, tc.opts)
			assert.Error(t, stage.Prepare(context.Background(), r, point.NewTable()))
		})
	}
}
