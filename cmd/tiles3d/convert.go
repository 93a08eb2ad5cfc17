package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/eak1mov/go-3dtiles/dir"
	"github.com/eak1mov/go-3dtiles/sqlpack"
	"github.com/eak1mov/go-3dtiles/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type convertCmd struct {
	inputFormat  string
	inputPath    string
	outputFormat string
	outputPath   string
	compress     bool
	verbose      bool
}

func (c *convertCmd) Name() string     { return "convert" }
func (c *convertCmd) Synopsis() string { return "convert between tileset directories and packages" }
func (c *convertCmd) Usage() string {
	return "tiles3d convert -i <path> -o <path> [-if <format> | -of <format>]\n"
}
func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path")
	f.StringVar(&c.inputFormat, "if", "", "Input format (dir, 3dtiles)")
	f.StringVar(&c.outputPath, "o", "", "Output path")
	f.StringVar(&c.outputFormat, "of", "", "Output format (dir, 3dtiles)")
	f.BoolVar(&c.compress, "z", false, "Store gzip-compressed contents in packages")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func (c *convertCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	reader, _, err := openStorage(c.inputFormat, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeStorage(reader)

	logger := newLogger(c.verbose)

	var writer tile.Writer
	switch deduceFormat(c.outputFormat, c.outputPath) {
	case "3dtiles":
		compression := sqlpack.CompressionNone
		if c.compress {
			compression = sqlpack.CompressionGzip
		}
		writer, err = sqlpack.NewWriter(c.outputPath, sqlpack.WithCompression(compression), sqlpack.WithLogger(logger))
	case "dir", "":
		writer, err = dir.NewWriter(c.outputPath, dir.WithLogger(logger))
	default:
		log.Printf("invalid output format: %q", c.outputFormat)
		return subcommands.ExitFailure
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := writer.(io.Closer); ok {
		defer closer.Close()
	}

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err = tile.Copy(writer, reader, func(string) { bar.Add(1) })
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
