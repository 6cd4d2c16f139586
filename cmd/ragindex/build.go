package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/hupe1980/ragindex"
	"github.com/hupe1980/ragindex/config"
)

func runBuild(ctx context.Context, cfg *config.AppConfig, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	resume := fs.Bool("resume", false, "Continue from the existing index file instead of starting empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pcfg, err := cfg.PipelineConfig()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	src, closeSrc, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}

	var p *ragindex.Pipeline
	if _, statErr := os.Stat(cfg.Index.Path); *resume && statErr == nil {
		p, err = ragindex.Open(ctx, cfg.Index.Path, provider, pcfg, opts...)
	} else {
		p, err = ragindex.New(pcfg, provider, opts...)
	}
	if err != nil {
		return err
	}

	report, ingestErr := p.Ingest(ctx, src)
	if report == nil {
		return ingestErr
	}
	printReport(report)

	// A cancelled run still saves what was indexed.
	saveCtx := context.WithoutCancel(ctx)
	if err := p.Save(saveCtx, cfg.Index.Path); err != nil {
		return err
	}
	fmt.Printf("%s %s (%d entries)\n", color.GreenString("saved"), cfg.Index.Path, p.Len())

	store, err := newStore(saveCtx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		name := cfg.Store.Name + "." + report.RunID
		if err := p.PublishBlob(saveCtx, store, name); err != nil {
			return err
		}
		fmt.Printf("%s %s to %s store\n", color.GreenString("published"), name, cfg.Store.Type)
	}

	if ingestErr != nil {
		return ingestErr
	}
	if !report.OK() {
		return errIncomplete
	}
	return nil
}

func printReport(r *ragindex.Report) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s\n", bold("run"), r.RunID)

	for _, d := range r.Documents {
		var state string
		switch d.State {
		case ragindex.StateIndexed:
			state = color.GreenString("%-16s", d.State)
		case ragindex.StatePartiallyFailed:
			state = color.YellowString("%-16s", d.State)
		default:
			state = color.RedString("%-16s", d.State)
		}
		fmt.Printf("  %s %s (%d/%d segments)\n", state, d.DocumentID, d.IndexedSegments, d.Segments)
		if d.Err != nil {
			for _, e := range unwrapJoined(d.Err) {
				fmt.Printf("      %s\n", color.RedString(e.Error()))
			}
		}
	}
	for _, err := range r.SourceErrors {
		fmt.Printf("  %s %v\n", color.RedString("%-16s", "source error"), err)
	}

	fmt.Printf("%s indexed=%d partial=%d failed=%d failed_segments=%d in %s\n",
		bold("summary"), r.Indexed, r.Partial, r.Failed, r.FailedSegments, r.Duration.Round(time.Millisecond))
	if r.Cancelled {
		fmt.Println(color.YellowString("cancelled before the source was exhausted"))
	}
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
