// Command ragindex builds, queries and inspects ragindex snapshots.
//
//	ragindex build   -config ragindex.yaml
//	ragindex query   -config ragindex.yaml -k 5 "how are batches retried?"
//	ragindex inspect -config ragindex.yaml -stats
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/hupe1980/ragindex/config"
)

// errIncomplete marks a build that finished with failed documents.
var errIncomplete = errors.New("ingestion incomplete")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.AppConfig, args []string) error
}

var commands = []command{
	{"build", "ingest the configured source and save the index", runBuild},
	{"query", "query the index with free text", runQuery},
	{"inspect", "print the header of the index file", runInspect},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: ragindex <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1], os.Args[2:]))
}

func run(ctx context.Context, name string, args []string) int {
	for _, c := range commands {
		if c.name != name {
			continue
		}

		shared := newSharedFlags()
		rest, err := splitFlags(shared.set, args)
		if err != nil {
			return 2
		}

		if err := config.LoadEnv(*shared.env); err != nil {
			return fail(err)
		}
		cfg, err := config.Load(*shared.config)
		if err != nil {
			return fail(fmt.Errorf("failed to load config: %w", err))
		}

		err = c.run(ctx, cfg, rest)
		switch {
		case errors.Is(err, errIncomplete):
			return 3
		case err != nil:
			return fail(err)
		}
		return 0
	}

	usage()
	return 2
}

// sharedFlags are accepted by every command.
type sharedFlags struct {
	set    *flag.FlagSet
	config *string
	env    *string
}

func newSharedFlags() *sharedFlags {
	fs := flag.NewFlagSet("ragindex", flag.ContinueOnError)
	return &sharedFlags{
		set:    fs,
		config: fs.String("config", "ragindex.yaml", "Path to YAML config file (defaults apply when missing)"),
		env:    fs.String("env", ".env", "Path to .env file"),
	}
}

// splitFlags parses the shared flags and returns the remaining arguments,
// which hold the subcommand's own flags.
func splitFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	var shared, rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-config" || a == "--config" || a == "-env" || a == "--env":
			shared = append(shared, a)
			if i+1 < len(args) {
				i++
				shared = append(shared, args[i])
			}
		case hasFlagPrefix(a, "config") || hasFlagPrefix(a, "env"):
			shared = append(shared, a)
		default:
			rest = append(rest, a)
		}
	}
	if err := fs.Parse(shared); err != nil {
		return nil, err
	}
	return rest, nil
}

func hasFlagPrefix(arg, name string) bool {
	return strings.HasPrefix(arg, "-"+name+"=") || strings.HasPrefix(arg, "--"+name+"=")
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	return 1
}
