package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/hupe1980/ragindex"
	"github.com/hupe1980/ragindex/config"
	"github.com/hupe1980/ragindex/index"
)

func runQuery(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	k := fs.Int("k", 5, "Number of results")
	docs := fs.String("docs", "", "Comma-separated document IDs to restrict the search to")
	nprobes := fs.Int("nprobes", 0, "Partitions scanned by the IVF index (0 = default)")
	fromStore := fs.Bool("from-store", false, "Load the snapshot CURRENT points at instead of the local file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("query text required")
	}

	pcfg, err := cfg.PipelineConfig()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}

	var p *ragindex.Pipeline
	if *fromStore {
		store, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("no store configured")
		}
		p, err = ragindex.OpenBlob(ctx, store, "", provider, pcfg, opts...)
		if err != nil {
			return err
		}
	} else {
		p, err = ragindex.Open(ctx, cfg.Index.Path, provider, pcfg, opts...)
		if err != nil {
			return err
		}
	}

	so := &index.SearchOptions{NProbes: *nprobes}
	if *docs != "" {
		so.Documents = strings.Split(*docs, ",")
	}

	results, err := p.QueryText(ctx, text, *k, so)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	for i, r := range results {
		fmt.Printf("%d. %s %s\n", i+1, cyan(r.Entry.Segment.ID()), color.HiBlackString("score=%.4f", r.Score))
		fmt.Printf("   %s\n", strings.Join(strings.Fields(r.Entry.Segment.Text), " "))
	}
	return nil
}
