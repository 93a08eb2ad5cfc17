package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/eak1mov/go-3dtiles/content"
	"github.com/eak1mov/go-3dtiles/tile"
	"github.com/eak1mov/go-3dtiles/tileset"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

type verifyCmd struct {
	inputFormat string
	inputPath   string
	tilesetURI  string
	jobs        int
	verbose     bool
}

func (c *verifyCmd) Name() string     { return "verify" }
func (c *verifyCmd) Synopsis() string { return "decode every reachable tile content and report failures" }
func (c *verifyCmd) Usage() string {
	return "tiles3d verify -i <path> [-if <format> -t <uri> -j <jobs>]\n"
}
func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input tileset document, directory or package")
	f.StringVar(&c.inputFormat, "if", "", "Input format (dir, 3dtiles)")
	f.StringVar(&c.tilesetURI, "t", "", "Tileset document URI inside the input")
	f.IntVar(&c.jobs, "j", runtime.NumCPU(), "Number of parallel decoders")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	source, tilesetURI, err := openStorage(c.inputFormat, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeStorage(source)
	if c.tilesetURI != "" {
		tilesetURI = c.tilesetURI
	}

	resolver := tileset.NewResolver(source, tileset.WithLogger(newLogger(c.verbose)))
	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	failures, err := verifyContents(ctx, resolver, source, tilesetURI, c.jobs, func() { bar.Add(1) })
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	for _, failure := range failures {
		fmt.Println(failure)
	}
	if len(failures) > 0 {
		log.Printf("%d contents failed to decode", len(failures))
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// verifyContents decodes every content reachable from tilesetURI using up to
// jobs goroutines. Decoding failures are collected; traversal and read
// failures abort the run.
func verifyContents(ctx context.Context, resolver *tileset.Resolver, source tile.Source, tilesetURI string, jobs int, progress func()) ([]error, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	var mu sync.Mutex
	var failures []error

	err := resolver.VisitContents(ctx, tilesetURI, func(ref *tileset.ContentRef) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Go(func() error {
			data, err := source.ReadContent(ref.URI)
			if err != nil {
				return err
			}
			if _, err := content.Decode(data); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", ref.URI, err))
				mu.Unlock()
			}
			progress()
			return nil
		})
		return nil
	})
	// A failed worker cancels ctx: its error takes precedence over the
	// cancellation it caused in the traversal.
	if waitErr := g.Wait(); waitErr != nil {
		err = waitErr
	}
	if err != nil {
		return nil, err
	}
	slices.SortFunc(failures, func(a, b error) int {
		return strings.Compare(a.Error(), b.Error())
	})
	return failures, nil
}
