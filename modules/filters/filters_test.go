package filters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pointpipe/internal/metadata"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
	"github.com/vk/pointpipe/modules/buffer"
)

// xyzTable returns a prepared table carrying the coordinate dimensions.
func xyzTable(t *testing.T) *point.Table {
	t.Helper()
	table := point.NewTable()
	for _, d := range []point.Dimension{point.DimX, point.DimY, point.DimZ} {
		require.NoError(t, table.Layout().RegisterDim(d))
	}
	return table
}

// viewOf builds a view with one point per coordinate triple.
func viewOf(t *testing.T, table *point.Table, pts ...[3]float64) *point.View {
	t.Helper()
	v := point.NewView(table)
	for _, p := range pts {
		idx := v.AppendPoint()
		require.NoError(t, v.SetField(point.DimX, idx, p[0]))
		require.NoError(t, v.SetField(point.DimY, idx, p[1]))
		require.NoError(t, v.SetField(point.DimZ, idx, p[2]))
	}
	return v
}

// runFilter executes the filter against the given source views through the
// full lifecycle, with a buffer reader as its input.
func runFilter(t *testing.T, f stage.Stage, opts *options.Set, table *point.Table, src ...*point.View) (point.ViewSet, error) {
	t.Helper()
	ctx := context.Background()

	reader := buffer.NewReader()
	for _, v := range src {
		reader.AddView(v)
	}
	stage.Connect(f, reader)
	if opts != nil {
		stage.SetOptions(f, opts)
	}
	require.NoError(t, stage.Prepare(ctx, f, table))
	return stage.Execute(ctx, f, table)
}

func TestCrop_KeepsContainedPoints(t *testing.T) {
	table := xyzTable(t)
	table.Layout().Finalize()
	src := viewOf(t, table,
		[3]float64{1, 1, 0},
		[3]float64{5, 5, 0},
		[3]float64{20, 1, 0},
		[3]float64{1, 20, 0},
	)

	views, err := runFilter(t, NewCrop(), options.New(
		options.Option{Name: "bounds", Value: "([0,10],[0,10])"},
	), table, src)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, 2, views[0].Len())
	assert.Equal(t, 5.0, views[0].GetField(point.DimX, 1))
}

func TestCrop_BoundsRequired(t *testing.T) {
	table := xyzTable(t)
	c := NewCrop()
	stage.Connect(c, buffer.NewReader())
	err := stage.Prepare(context.Background(), c, table)
	assert.ErrorIs(t, err, options.ErrNotFound)
}

func TestDecimation(t *testing.T) {
	testCases := []struct {
		name   string
		step   int
		offset int
		wantX  []float64
	}{
		{name: "every second point", step: 2, wantX: []float64{0, 2, 4}},
		{name: "with offset", step: 2, offset: 1, wantX: []float64{1, 3, 5}},
		{name: "step one keeps all", step: 1, wantX: []float64{0, 1, 2, 3, 4, 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table := xyzTable(t)
			table.Layout().Finalize()
			var pts [][3]float64
			for i := 0; i < 6; i++ {
				pts = append(pts, [3]float64{float64(i), 0, 0})
			}
			src := viewOf(t, table, pts...)

			views, err := runFilter(t, NewDecimation(), options.New(
				options.Option{Name: "step", Value: tc.step},
				options.Option{Name: "offset", Value: tc.offset},
			), table, src)
			require.NoError(t, err)
			require.Len(t, views, 1)

			var got []float64
			for i := 0; i < views[0].Len(); i++ {
				got = append(got, views[0].GetField(point.DimX, i))
			}
			assert.Equal(t, tc.wantX, got)
		})
	}
}

func TestDecimation_ZeroStepRejected(t *testing.T) {
	table := xyzTable(t)
	d := NewDecimation()
	stage.Connect(d, buffer.NewReader())
	stage.SetOptions(d, options.New(options.Option{Name: "step", Value: 0}))
	assert.Error(t, stage.Prepare(context.Background(), d, table))
}

func TestMerge_CollapsesViews(t *testing.T) {
	table := xyzTable(t)
	table.Layout().Finalize()
	a := viewOf(t, table, [3]float64{1, 0, 0})
	b := viewOf(t, table, [3]float64{2, 0, 0}, [3]float64{3, 0, 0})
	c := viewOf(t, table, [3]float64{4, 0, 0})

	views, err := runFilter(t, NewMerge(), nil, table, a, b, c)
	require.NoError(t, err)
	require.Len(t, views, 1, "all views collapse into one")
	assert.Equal(t, 4, views[0].Len())

	// Incoming views stay untouched; the merged view is a fresh one.
	for _, src := range []*point.View{a, b, c} {
		assert.NotEqual(t, src.ID(), views[0].ID())
	}
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 1, c.Len())
}

func TestSort(t *testing.T) {
	t.Run("ascending", func(t *testing.T) {
		table := xyzTable(t)
		table.Layout().Finalize()
		src := viewOf(t, table,
			[3]float64{3, 30, 0},
			[3]float64{1, 10, 0},
			[3]float64{2, 20, 0},
		)

		views, err := runFilter(t, NewSort(), options.New(
			options.Option{Name: "dimension", Value: "X"},
		), table, src)
		require.NoError(t, err)
		require.Len(t, views, 1)
		v := views[0]
		assert.Equal(t, []float64{1, 2, 3}, []float64{
			v.GetField(point.DimX, 0), v.GetField(point.DimX, 1), v.GetField(point.DimX, 2),
		})
		assert.Equal(t, 10.0, v.GetField(point.DimY, 0), "whole points move together")
	})

	t.Run("descending", func(t *testing.T) {
		table := xyzTable(t)
		table.Layout().Finalize()
		src := viewOf(t, table, [3]float64{1, 0, 0}, [3]float64{3, 0, 0}, [3]float64{2, 0, 0})

		views, err := runFilter(t, NewSort(), options.New(
			options.Option{Name: "dimension", Value: "X"},
			options.Option{Name: "order", Value: "desc"},
		), table, src)
		require.NoError(t, err)
		assert.Equal(t, 3.0, views[0].GetField(point.DimX, 0))
	})
}

func TestSplitter_ChunksByCapacity(t *testing.T) {
	table := xyzTable(t)
	table.Layout().Finalize()
	var pts [][3]float64
	for i := 0; i < 7; i++ {
		pts = append(pts, [3]float64{float64(i), 0, 0})
	}
	src := viewOf(t, table, pts...)

	views, err := runFilter(t, NewSplitter(), options.New(
		options.Option{Name: "capacity", Value: 3},
	), table, src)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, 3, views[0].Len())
	assert.Equal(t, 3, views[1].Len())
	assert.Equal(t, 1, views[2].Len())
	assert.Equal(t, 6.0, views[2].GetField(point.DimX, 0))
}

func TestStats_SummarizesDimensions(t *testing.T) {
	table := xyzTable(t)
	table.Layout().Finalize()
	a := viewOf(t, table, [3]float64{1, 0, 0}, [3]float64{2, 0, 0})
	b := viewOf(t, table, [3]float64{3, 0, 0}, [3]float64{4, 0, 0})

	s := NewStats()
	views, err := runFilter(t, s, options.New(
		options.Option{Name: "dimensions", Value: []any{"X"}},
	), table, a, b)
	require.NoError(t, err)
	assert.Equal(t, 4, views.TotalPoints(), "views pass through unchanged")

	node := s.Metadata().FindChild(func(n *metadata.Node) bool { return n.Name() == "X" })
	require.NotNil(t, node)

	values := make(map[string]any)
	for _, child := range node.Children() {
		values[child.Name()] = child.Value()
	}
	assert.Equal(t, 4, values["count"])
	assert.Equal(t, 1.0, values["minimum"])
	assert.Equal(t, 4.0, values["maximum"])
	assert.InDelta(t, 2.5, values["average"].(float64), 1e-9)
}
