package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/eak1mov/go-3dtiles/content"
	"github.com/google/subcommands"
)

type extractCmd struct {
	inputPath  string
	outputPath string
}

func (c *extractCmd) Name() string     { return "extract" }
func (c *extractCmd) Synopsis() string { return "extract the scene payload of a tile" }
func (c *extractCmd) Usage() string {
	return "tiles3d extract -i <path> -o <path>\n"
}
func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input tile path (b3dm, i3dm, pnts)")
	f.StringVar(&c.outputPath, "o", "", "Output path (glb, uri or point list)")
}

func (c *extractCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	data, err := os.ReadFile(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	format, err := content.Sniff(data)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	payload, err := content.ExtractScenePayload(data, format)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	file, err := os.Create(c.outputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	if err := writePayload(file, payload); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if err := file.Close(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// writePayload writes binary glTF as is, a model URI as a line of text and
// points as "x y z" lines in world coordinates.
func writePayload(w io.Writer, payload *content.Payload) error {
	switch {
	case payload.Glb != nil:
		_, err := w.Write(payload.Glb)
		return err
	case payload.Points != nil:
		bw := bufio.NewWriter(w)
		for _, p := range payload.Points.WorldPositions() {
			fmt.Fprintf(bw, "%g %g %g\n", p[0], p[1], p[2])
		}
		return bw.Flush()
	default:
		_, err := fmt.Fprintln(w, payload.URI)
		return err
	}
}
