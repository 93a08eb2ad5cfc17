package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/eak1mov/go-3dtiles/tileset"
	"github.com/google/subcommands"
)

type resolveCmd struct {
	inputFormat string
	inputPath   string
	tilesetURI  string
	maxDepth    int
	all         bool
	verbose     bool
}

func (c *resolveCmd) Name() string     { return "resolve" }
func (c *resolveCmd) Synopsis() string { return "print the first tile content reachable from a tileset" }
func (c *resolveCmd) Usage() string {
	return "tiles3d resolve -i <path> [-if <format> -t <uri> -all]\n"
}
func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input tileset document, directory or package")
	f.StringVar(&c.inputFormat, "if", "", "Input format (dir, 3dtiles)")
	f.StringVar(&c.tilesetURI, "t", "", "Tileset document URI inside the input")
	f.IntVar(&c.maxDepth, "max-depth", 0, "Maximum nesting depth of tileset documents (0 is unlimited)")
	f.BoolVar(&c.all, "all", false, "Print every reachable content")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func (c *resolveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	source, tilesetURI, err := openStorage(c.inputFormat, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeStorage(source)
	if c.tilesetURI != "" {
		tilesetURI = c.tilesetURI
	}

	resolver := tileset.NewResolver(source,
		tileset.WithLogger(newLogger(c.verbose)),
		tileset.WithMaxDepth(c.maxDepth),
	)

	printRef := func(ref *tileset.ContentRef) error {
		fmt.Printf("%s\t%s\tdepth=%d\troot=%s\n", ref.URI, ref.TilesetURI, ref.Depth, ref.RootBoundingVolume.String())
		return nil
	}

	if c.all {
		err = resolver.VisitContents(ctx, tilesetURI, printRef)
	} else {
		var ref *tileset.ContentRef
		if ref, err = resolver.ResolveNextContent(ctx, tilesetURI); err == nil {
			err = printRef(ref)
		}
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
