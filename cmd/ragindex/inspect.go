package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/fatih/color"

	"github.com/hupe1980/ragindex/config"
	"github.com/hupe1980/ragindex/persistence"
)

func runInspect(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	stats := fs.Bool("stats", false, "Load the index and print entry statistics")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := cfg.Index.Path
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	info, err := persistence.Inspect(path)
	if err != nil {
		return err
	}

	label := color.New(color.Bold).SprintfFunc()
	fmt.Printf("%s %s\n", label("%-12s", "file"), path)
	fmt.Printf("%s %d\n", label("%-12s", "version"), info.Version)
	fmt.Printf("%s %s\n", label("%-12s", "metric"), info.Metric)
	fmt.Printf("%s %d\n", label("%-12s", "dimension"), info.Dimension)
	fmt.Printf("%s %d\n", label("%-12s", "entries"), info.Count)
	fmt.Printf("%s %s (%s)\n", label("%-12s", "compression"), info.Compression, info.Codec)
	fmt.Printf("%s %d -> %d bytes\n", label("%-12s", "payload"), info.RawSize, info.StoredSize)

	if !*stats {
		return nil
	}

	idx, err := persistence.Load(ctx, path)
	if err != nil {
		return err
	}
	s := idx.Stats()
	fmt.Printf("%s %d\n", label("%-12s", "documents"), s.Documents)
	fmt.Printf("%s %d bytes\n", label("%-12s", "vectors"), s.VectorBytes)
	return nil
}
