package sqlpack_test

import (
	"errors"
	"maps"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-3dtiles/sqlpack"
	"github.com/eak1mov/go-3dtiles/tile"
	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	contents := map[string][]byte{
		"tileset.json":     []byte(`{"asset":{"version":"1.0"}}`),
		"data/0.b3dm":      []byte("b3dm0"),
		"sub/tileset.json": []byte("{}"),
		"sub/1.pnts":       {},
	}

	for _, tc := range []struct {
		name        string
		compression sqlpack.Compression
	}{
		{"none", sqlpack.CompressionNone},
		{"gzip", sqlpack.CompressionGzip},
	} {
		t.Run(tc.name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "tiles.3dtiles")

			writer, err := sqlpack.NewWriter(filePath, sqlpack.WithCompression(tc.compression))
			require.Nil(t, err)
			for uri, data := range contents {
				require.Nil(t, writer.WriteContent(uri, data))
			}
			require.Nil(t, writer.WriteContent("./data/0.b3dm", []byte("b3dm0")))
			err = writer.WriteContent("/abs.b3dm", nil)
			require.True(t, errors.Is(err, tile.ErrInvalidURI), err)
			require.Nil(t, writer.Finalize())
			require.Nil(t, writer.Close())

			reader, err := sqlpack.NewReader(filePath)
			require.Nil(t, err)
			defer reader.Close()

			got := maps.Collect(tile.IterContents(reader))
			if diff := cmp.Diff(contents, got, cmp.Comparer(func(a, b []byte) bool { return string(a) == string(b) })); diff != "" {
				t.Errorf("VisitContents mismatch (-want +got):\n%s", diff)
			}

			data, err := reader.ReadContent("sub/../data/0.b3dm")
			require.Nil(t, err)
			require.Equal(t, "b3dm0", string(data))

			_, err = reader.ReadContent("missing.b3dm")
			require.True(t, errors.Is(err, tile.ErrNotFound), err)
		})
	}
}

func TestVisitOrder(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tiles.3dtiles")
	writer, err := sqlpack.NewWriter(filePath)
	require.Nil(t, err)
	for _, uri := range []string{"b.b3dm", "a/tileset.json", "c.pnts"} {
		require.Nil(t, writer.WriteContent(uri, []byte(uri)))
	}
	require.Nil(t, writer.Finalize())
	require.Nil(t, writer.Close())

	reader, err := sqlpack.NewReader(filePath)
	require.Nil(t, err)
	defer reader.Close()

	var keys []string
	for uri := range tile.IterContents(reader) {
		keys = append(keys, uri)
	}
	require.Equal(t, []string{"a/tileset.json", "b.b3dm", "c.pnts"}, keys)
}
