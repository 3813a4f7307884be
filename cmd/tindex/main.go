// Command tindex builds and queries a tile index of point cloud files.
//
// Usage:
//
//	tindex build -db index.sqlite -root ./data
//	tindex merge -db index.sqlite -bounds "([0,100],[0,100])" -o out.las
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/vk/pointpipe/internal/ctxlog"
	"github.com/vk/pointpipe/internal/point"
	"github.com/vk/pointpipe/internal/tindex"
	"github.com/vk/pointpipe/modules"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tindex <build|merge> [options]")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	switch args[0] {
	case "build":
		return runBuild(ctx, args[1:])
	case "merge":
		return runMerge(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: expected build or merge", args[0])
	}
}

func runBuild(ctx context.Context, args []string) error {
	flagSet := flag.NewFlagSet("tindex build", flag.ContinueOnError)
	dbPath := flagSet.String("db", "index.sqlite", "Path to the index database.")
	root := flagSet.String("root", ".", "Directory tree to scan for point cloud files.")
	workers := flagSet.Int("workers", runtime.NumCPU(), "Number of files scanned concurrently.")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	db, err := tindex.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	kernel := tindex.NewKernel(db, modules.NewFactory())
	indexed, err := kernel.Build(ctx, *root, *workers)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Index build finished.", "files", indexed)
	return nil
}

func runMerge(ctx context.Context, args []string) error {
	flagSet := flag.NewFlagSet("tindex merge", flag.ContinueOnError)
	dbPath := flagSet.String("db", "index.sqlite", "Path to the index database.")
	boundsExpr := flagSet.String("bounds", "", "Query window, e.g. \"([0,100],[0,100])\".")
	outFile := flagSet.String("o", "", "Output filename.")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *boundsExpr == "" || *outFile == "" {
		return fmt.Errorf("tindex merge requires -bounds and -o")
	}

	bounds, err := point.ParseBounds(*boundsExpr)
	if err != nil {
		return err
	}

	db, err := tindex.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	kernel := tindex.NewKernel(db, modules.NewFactory())
	merged, err := kernel.Merge(ctx, bounds, *outFile)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Merge finished.", "files", merged, "output", *outFile)
	return nil
}
