package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brayanjuls/csprimer-db/engine"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o644))
	return path
}

func TestCSVFileScanSkipsHeaderAndSplitsCells(t *testing.T) {
	path := writeCSV(t, "movieId,title\n1,Toy Story (1995)\n2,Jumanji (1995)\n")

	scan, err := engine.NewCSVFileScan(path, 100)
	require.NoError(t, err)
	defer scan.Close()

	got, err := engine.Drain(scan)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "1", got[0][0])
	require.Equal(t, "Toy Story (1995)\n", got[0][1])
	require.Equal(t, "2", got[1][0])
}

func TestCSVFileScanResetRereadsFromStart(t *testing.T) {
	path := writeCSV(t, "movieId,title\n1,Toy Story (1995)\n")

	scan, err := engine.NewCSVFileScan(path, 10)
	require.NoError(t, err)
	defer scan.Close()

	first, err := engine.Drain(scan)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, scan.Reset())
	second, err := engine.Drain(scan)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
