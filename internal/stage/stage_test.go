package stage

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/srs"
)

// testStage is a configurable stage for lifecycle tests. Every optional
// hook is implemented and delegates to the matching callback when set.
type testStage struct {
	Base

	onPrepared func(ctx context.Context, table *point.Table) error
	onReady    func(ctx context.Context, table *point.Table) error
	onDone     func(ctx context.Context, table *point.Table) error
	onRun      func(ctx context.Context, view *point.View) (point.ViewSet, error)
}

func newTestStage(name string, kind Kind) *testStage {
	return &testStage{Base: NewBase(name, kind)}
}

func (s *testStage) Run(ctx context.Context, view *point.View) (point.ViewSet, error) {
	if s.onRun != nil {
		return s.onRun(ctx, view)
	}
	return point.ViewSet{view}, nil
}

func (s *testStage) Prepared(ctx context.Context, table *point.Table) error {
	if s.onPrepared != nil {
		return s.onPrepared(ctx, table)
	}
	return nil
}

func (s *testStage) Ready(ctx context.Context, table *point.Table) error {
	if s.onReady != nil {
		return s.onReady(ctx, table)
	}
	return nil
}

func (s *testStage) Done(ctx context.Context, table *point.Table) error {
	if s.onDone != nil {
		return s.onDone(ctx, table)
	}
	return nil
}

// recordPrepared wires the stage to append its name to order when its
// preparation completes.
func recordPrepared(s *testStage, order *[]string) {
	s.onPrepared = func(context.Context, *point.Table) error {
		*order = append(*order, s.Name())
		return nil
	}
}

func TestPrepare_UpstreamFirstExactlyOnce(t *testing.T) {
	// Diamond: both filters consume the same reader, the writer
	// consumes both filters.
	reader := newTestStage("drivers.faux.reader", KindReader)
	left := newTestStage("filters.left", KindFilter)
	right := newTestStage("filters.right", KindFilter)
	writer := newTestStage("drivers.null.writer", KindWriter)

	left.SetInput(reader)
	right.SetInput(reader)
	writer.SetInput(left)
	writer.SetInput(right)

	var order []string
	for _, s := range []*testStage{reader, left, right, writer} {
		recordPrepared(s, &order)
	}

	require.NoError(t, Prepare(context.Background(), writer, point.NewTable()))
	assert.Equal(t, []string{
		"drivers.faux.reader",
		"filters.left",
		"filters.right",
		"drivers.null.writer",
	}, order, "shared upstream prepares once, strictly before consumers")
}

func TestPrepare_IsIdempotent(t *testing.T) {
	reader := newTestStage("drivers.faux.reader", KindReader)
	var order []string
	recordPrepared(reader, &order)

	table := point.NewTable()
	require.NoError(t, Prepare(context.Background(), reader, table))
	require.NoError(t, Prepare(context.Background(), reader, table))
	assert.Len(t, order, 1)
}

func TestPrepare_RejectsCycle(t *testing.T) {
	a := newTestStage("filters.a", KindFilter)
	b := newTestStage("filters.b", KindFilter)
	a.SetInput(b)
	b.SetInput(a)

	err := Prepare(context.Background(), a, point.NewTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestPrepare_DebugForcesVerbose(t *testing.T) {
	testCases := []struct {
		name        string
		opts        *options.Set
		wantVerbose uint
	}{
		{
			name:        "defaults stay silent",
			opts:        options.New(),
			wantVerbose: 0,
		},
		{
			name:        "debug raises verbose to one",
			opts:        options.New(options.Option{Name: "debug", Value: true}),
			wantVerbose: 1,
		},
		{
			name: "explicit verbose wins over debug",
			opts: options.New(
				options.Option{Name: "debug", Value: true},
				options.Option{Name: "verbose", Value: 3},
			),
			wantVerbose: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStage("drivers.faux.reader", KindReader)
			s.SetOptions(tc.opts)
			require.NoError(t, Prepare(context.Background(), s, point.NewTable()))
			assert.Equal(t, tc.wantVerbose, s.base().verbose)
		})
	}
}

func TestPrepare_LogEstablishment(t *testing.T) {
	reader := newTestStage("drivers.faux.reader", KindReader)
	inherit := newTestStage("filters.inherit", KindFilter)
	own := newTestStage("filters.own", KindFilter)
	inherit.SetInput(reader)
	own.SetInput(inherit)
	own.SetOptions(options.New(options.Option{Name: "log", Value: "devnull"}))

	require.NoError(t, Prepare(context.Background(), own, point.NewTable()))

	require.NotNil(t, reader.Log())
	assert.Equal(t, io.Writer(os.Stderr), reader.Log().Writer(),
		"a reader without a log option writes to the standard stream")
	assert.Equal(t, reader.Log().Writer(), inherit.Log().Writer(),
		"a stage without a log option shares its first input's stream")
	assert.Equal(t, "filters.inherit", inherit.Log().Leader())
	assert.Equal(t, io.Discard, own.Log().Writer(),
		"an explicit log option opens a separate stream")
}

func TestPrepare_SpatialReferenceOption(t *testing.T) {
	testCases := []struct {
		name    string
		value   any
		absent  bool
		wantErr bool
		wantWKT string
	}{
		{name: "absent is silent", absent: true},
		{name: "string value", value: "EPSG:26916", wantWKT: "EPSG:26916"},
		{name: "srs value", value: srs.New("EPSG:4326"), wantWKT: "EPSG:4326"},
		{name: "malformed value", value: 42, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStage("drivers.faux.reader", KindReader)
			if !tc.absent {
				s.SetOptions(options.New(options.Option{Name: "spatialreference", Value: tc.value}))
			}
			err := Prepare(context.Background(), s, point.NewTable())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantWKT, s.SpatialReference().String())
		})
	}
}

func TestSetSpatialReference_MetadataAddedOnce(t *testing.T) {
	s := newTestStage("drivers.las.reader", KindReader)
	require.NoError(t, Prepare(context.Background(), s, point.NewTable()))

	s.SetSpatialReference(srs.NewCompound("PROJCS[a]", "COMPD_CS[a]"))
	s.SetSpatialReference(srs.NewCompound("PROJCS[b]", "COMPD_CS[b]"))

	var horizontal, compound int
	for _, child := range s.Metadata().Children() {
		switch child.Name() {
		case "spatialreference":
			horizontal++
		case "comp_spatialreference":
			compound++
		}
	}
	assert.Equal(t, 1, horizontal)
	assert.Equal(t, 1, compound)
	assert.Equal(t, "PROJCS[b]", s.SpatialReference().WKT(srs.HorizontalOnly),
		"the reference value itself still follows the latest call")
}

func TestFindStage(t *testing.T) {
	reader := newTestStage("drivers.las.reader", KindReader)
	crop := newTestStage("filters.crop", KindFilter)
	writer := newTestStage("drivers.las.writer", KindWriter)
	crop.SetInput(reader)
	writer.SetInput(crop)

	t.Run("case-insensitive match in upstream graph", func(t *testing.T) {
		hits := FindStage(writer, "FILTERS.CROP")
		require.Len(t, hits, 1)
		assert.Same(t, Stage(crop), hits[0])
	})

	t.Run("self matches first", func(t *testing.T) {
		other := newTestStage("filters.crop", KindFilter)
		other.SetInput(crop)
		hits := FindStage(other, "filters.crop")
		require.Len(t, hits, 2)
		assert.Same(t, Stage(other), hits[0])
		assert.Same(t, Stage(crop), hits[1])
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, FindStage(writer, "filters.absent"))
	})
}
