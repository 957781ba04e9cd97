package dbfile_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/brayanjuls/csprimer-db/dbfile"
	"github.com/brayanjuls/csprimer-db/page"
	"github.com/brayanjuls/csprimer-db/record"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, schema record.Schema) *dbfile.DatabaseFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.db")
	df, err := dbfile.Open(path, "testdb", "birds", schema)
	require.NoError(t, err)
	return df
}

func TestFileRoundTrip(t *testing.T) {
	schema := record.Schema{record.INT32, record.STRING, record.STRING}
	df := openTemp(t, schema)

	const n = 200
	want := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := record.Record{int32(i), fmt.Sprintf("name-%d", i), fmt.Sprintf("tag-%d", i%7)}
		want = append(want, rec)
		require.NoError(t, df.Append(rec))
	}

	require.NoError(t, df.WriteDirty())
	df.ResetScan()

	var got []record.Record
	for {
		p, ok, err := df.ReadNextPage()
		require.NoError(t, err)
		if !ok {
			break
		}
		recs, err := p.Records(schema)
		require.NoError(t, err)
		got = append(got, recs...)
	}

	require.Equal(t, want, got)
}

func TestAppendOverflowsToFreshPage(t *testing.T) {
	schema := record.Schema{record.STRING}
	df := openTemp(t, schema)

	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = 'z'
	}

	for i := 0; i < 40; i++ {
		require.NoError(t, df.Append(record.Record{string(payload)}))
	}
	require.NoError(t, df.WriteDirty())

	df.ResetScan()
	var pages int
	for {
		_, ok, err := df.ReadNextPage()
		require.NoError(t, err)
		if !ok {
			break
		}
		pages++
	}
	require.Greater(t, pages, 1)
}

func TestReopenExistingFilePreservesHeaderAndData(t *testing.T) {
	schema := record.Schema{record.INT32, record.FLOAT32}
	path := filepath.Join(t.TempDir(), "table.db")

	df, err := dbfile.Open(path, "testdb", "measurements", schema)
	require.NoError(t, err)
	require.NoError(t, df.Append(record.Record{int32(1), float32(2.5)}))
	require.NoError(t, df.Close())

	reopened, err := dbfile.Open(path, "testdb", "measurements", schema)
	require.NoError(t, err)
	require.Equal(t, schema, reopened.Schema())

	reopened.ResetScan()
	p, ok, err := reopened.ReadNextPage()
	require.NoError(t, err)
	require.True(t, ok)

	recs, err := p.Records(schema)
	require.NoError(t, err)
	require.Equal(t, []record.Record{{int32(1), float32(2.5)}}, recs)
}

func TestOpenRejectsDirectoryPath(t *testing.T) {
	dir := t.TempDir()
	_, err := dbfile.Open(dir, "testdb", "t", record.Schema{record.INT32})
	require.ErrorIs(t, err, dbfile.ErrIO)
}

func TestEndOffsetGrowsByExactlyOnePageOnOverflow(t *testing.T) {
	schema := record.Schema{record.STRING}
	path := filepath.Join(t.TempDir(), "table.db")
	df, err := dbfile.Open(path, "testdb", "t", schema)
	require.NoError(t, err)

	payload := string(make([]byte, 250))
	require.NoError(t, df.Append(record.Record{payload}))
	require.NoError(t, df.WriteDirty())
	sizeBefore := fileSize(t, path)

	// Keep appending until the tail page overflows into a new one.
	for i := 0; i < 50; i++ {
		require.NoError(t, df.Append(record.Record{payload}))
		require.NoError(t, df.WriteDirty())
		sizeAfter := fileSize(t, path)
		if sizeAfter > sizeBefore {
			require.Equal(t, int64(page.Size), sizeAfter-sizeBefore)
			return
		}
	}
	t.Fatal("expected at least one page overflow")
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}
