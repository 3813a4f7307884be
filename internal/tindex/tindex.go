// Package tindex maintains a tile index: a SQLite catalog of point
// cloud files with their extents, and a merge operation that assembles
// the files overlapping a query window into one output.
package tindex

import (
	"context"
	"database/sql"
	_ "embed"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/vk/pointpipe/internal/factory"
	"github.com/vk/pointpipe/internal/fsutil"
	"github.com/vk/pointpipe/internal/options"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/stage"
)

// schema.sql defines the tile_index table holding one row per indexed
// file with its spatial reference and bounding box.
//
//go:embed schema.sql
var schemaSQL string

// DB wraps the index database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the index database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open tile index %q", path)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize tile index schema")
	}
	return &DB{db}, nil
}

// Entry is one indexed file.
type Entry struct {
	Filename   string
	SRS        string
	PointCount int
	Bounds     point.Bounds
}

// Insert adds or replaces the row for e.Filename.
func (db *DB) Insert(e Entry) error {
	query := `
		INSERT INTO tile_index (filename, srs, point_count, min_x, min_y, min_z, max_x, max_y, max_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			srs = excluded.srs,
			point_count = excluded.point_count,
			min_x = excluded.min_x, min_y = excluded.min_y, min_z = excluded.min_z,
			max_x = excluded.max_x, max_y = excluded.max_y, max_z = excluded.max_z
	`
	b := e.Bounds
	_, err := db.Exec(query, e.Filename, e.SRS, e.PointCount,
		b.MinX, b.MinY, b.MinZ, b.MaxX, b.MaxY, b.MaxZ)
	return errors.Wrapf(err, "failed to index %q", e.Filename)
}

// Intersecting returns the entries whose X/Y extent overlaps b, in
// insertion order.
func (db *DB) Intersecting(b point.Bounds) ([]Entry, error) {
	query := `
		SELECT filename, srs, point_count, min_x, min_y, min_z, max_x, max_y, max_z
		FROM tile_index
		WHERE min_x <= ? AND max_x >= ? AND min_y <= ? AND max_y >= ?
		ORDER BY id
	`
	rows, err := db.Query(query, b.MaxX, b.MinX, b.MaxY, b.MinY)
	if err != nil {
		return nil, errors.Wrap(err, "tile index query failed")
	}
	defer rows.Close()
	return scanEntries(rows)
}

// All returns every entry in insertion order.
func (db *DB) All() ([]Entry, error) {
	query := `
		SELECT filename, srs, point_count, min_x, min_y, min_z, max_x, max_y, max_z
		FROM tile_index
		ORDER BY id
	`
	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "tile index query failed")
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var minX, minY, minZ, maxX, maxY, maxZ float64
		if err := rows.Scan(&e.Filename, &e.SRS, &e.PointCount,
			&minX, &minY, &minZ, &maxX, &maxY, &maxZ); err != nil {
			return nil, errors.Wrap(err, "failed to scan tile index row")
		}
		e.Bounds.Grow(minX, minY, minZ)
		e.Bounds.Grow(maxX, maxY, maxZ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Kernel builds and consumes a tile index using the driver registry for
// file access.
type Kernel struct {
	db      *DB
	factory *factory.Factory
}

// NewKernel creates a kernel over an open index database.
func NewKernel(db *DB, f *factory.Factory) *Kernel {
	return &Kernel{db: db, factory: f}
}

// fileExtensions are the suffixes Build considers when scanning a tree.
var fileExtensions = []string{".las", ".laz", ".txt", ".csv", ".sbet", ".qi"}

// Build scans the tree under root and indexes every recognized point
// cloud file. Up to maxWorkers files are scanned concurrently; the
// first failure aborts the remaining scans.
func (k *Kernel) Build(ctx context.Context, root string, maxWorkers int) (int, error) {
	files, err := fsutil.FindFilesByExtensions(root, fileExtensions...)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to scan %q", root)
	}

	if maxWorkers < 1 {
		maxWorkers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	var mu sync.Mutex
	indexed := 0
	for _, file := range files {
		g.Go(func() error {
			entry, err := k.scanFile(gctx, file)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if err := k.db.Insert(entry); err != nil {
				return err
			}
			indexed++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return indexed, nil
}

// scanFile reads one file end to end and computes its entry.
func (k *Kernel) scanFile(ctx context.Context, file string) (Entry, error) {
	driver := k.factory.InferReaderDriver(file)
	if driver == "" {
		return Entry{}, errors.Errorf("cannot infer a reader driver for %q", file)
	}
	reader, err := k.factory.CreateReader(driver)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "cannot index %q", file)
	}
	stage.SetOptions(reader, options.New(options.Option{Name: "filename", Value: file}))

	table := point.NewTable()
	if err := stage.Prepare(ctx, reader, table); err != nil {
		return Entry{}, errors.Wrapf(err, "failed to prepare %q", file)
	}
	views, err := stage.Execute(ctx, reader, table)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "failed to read %q", file)
	}

	entry := Entry{
		Filename: file,
		SRS:      table.SpatialRef().String(),
		Bounds:   point.EmptyBounds(),
	}
	for _, v := range views {
		entry.PointCount += v.Len()
		for i := 0; i < v.Len(); i++ {
			entry.Bounds.Grow(
				v.GetField(point.DimX, i),
				v.GetField(point.DimY, i),
				v.GetField(point.DimZ, i),
			)
		}
	}
	return entry, nil
}

// Merge assembles every indexed file overlapping bounds into outFile.
// It returns the number of source files merged.
func (k *Kernel) Merge(ctx context.Context, bounds point.Bounds, outFile string) (int, error) {
	entries, err := k.db.Intersecting(bounds)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, errors.Errorf("no indexed files overlap %s", bounds)
	}

	merge, err := k.factory.CreateFilter("filters.merge")
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		driver := k.factory.InferReaderDriver(e.Filename)
		if driver == "" {
			return 0, errors.Errorf("cannot infer a reader driver for %q", e.Filename)
		}
		reader, err := k.factory.CreateReader(driver)
		if err != nil {
			return 0, err
		}
		stage.SetOptions(reader, options.New(options.Option{Name: "filename", Value: e.Filename}))
		stage.Connect(merge, reader)
	}

	crop, err := k.factory.CreateFilter("filters.crop")
	if err != nil {
		return 0, err
	}
	stage.SetOptions(crop, options.New(options.Option{Name: "bounds", Value: bounds.String()}))
	stage.Connect(crop, merge)

	writerDriver := k.factory.InferWriterDriver(outFile)
	writer, err := k.factory.CreateWriter(writerDriver)
	if err != nil {
		return 0, err
	}
	stage.SetOptions(writer, options.New(options.Option{Name: "filename", Value: outFile}))
	stage.AddConditionalOptions(writer, k.factory.InferWriterOptionsChanges(outFile))
	stage.Connect(writer, crop)

	table := point.NewTable()
	if err := stage.Prepare(ctx, writer, table); err != nil {
		return 0, err
	}
	if _, err := stage.Execute(ctx, writer, table); err != nil {
		return 0, err
	}
	return len(entries), nil
}
