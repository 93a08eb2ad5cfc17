package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/eak1mov/go-3dtiles/content"
	"github.com/eak1mov/go-3dtiles/spec"
	"github.com/eak1mov/go-3dtiles/tileset"
	"github.com/google/subcommands"
	"github.com/qmuntal/gltf"
)

type inspectCmd struct{}

func (c *inspectCmd) Name() string     { return "inspect" }
func (c *inspectCmd) Synopsis() string { return "print header, tables and payload summary of a tile or tileset" }
func (c *inspectCmd) Usage() string {
	return "tiles3d inspect <path>...\n"
}
func (c *inspectCmd) SetFlags(f *flag.FlagSet) {}

func (c *inspectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		log.Println("no input paths")
		return subcommands.ExitUsageError
	}

	status := subcommands.ExitSuccess
	for _, filePath := range f.Args() {
		data, err := os.ReadFile(filePath)
		if err != nil {
			log.Println(err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%s:\n", filePath)
		if err := describe(os.Stdout, data); err != nil {
			log.Printf("%s: %v", filePath, err)
			status = subcommands.ExitFailure
		}
	}
	return status
}

func describe(w io.Writer, data []byte) error {
	format, err := content.Sniff(data)
	if err != nil {
		return err
	}
	if format == content.FormatTileset {
		ts, err := tileset.Parse(data)
		if err != nil {
			return err
		}
		return describeTileset(w, ts)
	}

	c, err := content.Decode(data)
	if err != nil {
		return err
	}
	switch {
	case c.Batched != nil:
		t := c.Batched
		describeHeader(w, &t.Header)
		batchLength, err := t.BatchLength()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  batch length: %d\n", batchLength)
		if center, ok, err := t.RTCCenter(); err != nil {
			return err
		} else if ok {
			fmt.Fprintf(w, "  rtc center: %v\n", center)
		}
		describeBatchTable(w, &t.BatchTable)
		describeGlb(w, t.Glb)
	case c.Instanced != nil:
		t := c.Instanced
		describeHeader(w, &t.Header.Header)
		instances, err := t.Instances()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  instances: %d, east-north-up: %v\n", len(instances.Positions), instances.EastNorthUp)
		describeBatchTable(w, &t.BatchTable)
		if t.Header.GltfFormat == spec.GltfFormatURI {
			fmt.Fprintf(w, "  gltf uri: %q\n", t.URI)
		} else {
			describeGlb(w, t.Glb)
		}
	case c.Points != nil:
		t := c.Points
		describeHeader(w, &t.Header)
		points, err := t.Points()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  points: %d, colors: %v, normals: %v, batch ids: %v\n",
			len(points.Positions), points.Colors != nil || points.ConstantColor != nil, points.Normals != nil, points.BatchIDs != nil)
		if len(points.Positions) > 0 {
			bounds := points.Bounds()
			fmt.Fprintf(w, "  bounds: %v .. %v\n", bounds.Min, bounds.Max)
		}
		describeBatchTable(w, &t.BatchTable)
	default:
		describeGlb(w, c.Glb)
	}
	return nil
}

func describeHeader(w io.Writer, h *spec.Header) {
	fmt.Fprintf(w, "  magic: %s, version: %d, byte length: %d\n", h.Magic, h.Version, h.ByteLength)
	fmt.Fprintf(w, "  feature table: json %d, binary %d\n", h.FeatureTableJSONByteLength, h.FeatureTableBinaryByteLength)
	fmt.Fprintf(w, "  batch table: json %d, binary %d\n", h.BatchTableJSONByteLength, h.BatchTableBinaryByteLength)
}

func describeBatchTable(w io.Writer, t *spec.BatchTable) {
	if t.JSON == nil {
		return
	}
	fmt.Fprintf(w, "  batch table properties: %v\n", t.JSON.Names())
}

func describeGlb(w io.Writer, data []byte) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		fmt.Fprintf(w, "  glb: %d bytes (%v)\n", len(data), err)
		return
	}
	fmt.Fprintf(w, "  glb: %d bytes, version %s, generator %q, %d meshes, %d nodes, %d materials\n",
		len(data), doc.Asset.Version, doc.Asset.Generator, len(doc.Meshes), len(doc.Nodes), len(doc.Materials))
}

func describeTileset(w io.Writer, ts *tileset.Tileset) error {
	fmt.Fprintf(w, "  asset version: %s, geometric error: %v\n", ts.Asset.Version, ts.GeometricError)
	fmt.Fprintf(w, "  root bounding volume: %s\n", ts.Root.BoundingVolume.String())
	if bound, ok := ts.Root.BoundingVolume.RegionBound(); ok {
		center := bound.Center()
		fmt.Fprintf(w, "  root center: %.6f, %.6f\n", center.Lon(), center.Lat())
	}

	tiles, contents, maxDepth := 0, 0, 0
	err := tileset.Walk(ts, func(v *tileset.Visit) error {
		tiles++
		maxDepth = max(maxDepth, v.Depth)
		if v.Tile.HasContent() {
			contents++
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  tiles: %d, contents: %d, depth: %d\n", tiles, contents, maxDepth)

	if err := ts.Validate(); err != nil {
		fmt.Fprintf(w, "  validation: %v\n", err)
	}
	return nil
}
