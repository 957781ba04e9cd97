package engine_test

import (
	"path/filepath"
	"testing"

	"github.com/brayanjuls/csprimer-db/dbfile"
	"github.com/brayanjuls/csprimer-db/engine"
	"github.com/brayanjuls/csprimer-db/record"
	"github.com/stretchr/testify/require"
)

// TestBulkInsertThenFileScan exercises the append path end to end: an
// Insert operator writing many records across several page overflows,
// followed by a FileScan reading them back in file order.
func TestBulkInsertThenFileScan(t *testing.T) {
	schema := record.Schema{record.INT32, record.STRING, record.FLOAT32}
	path := filepath.Join(t.TempDir(), "movies.db")
	df, err := dbfile.Open(path, "demo", "movies", schema)
	require.NoError(t, err)
	defer df.Close()

	const n = 500
	want := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		want = append(want, record.Record{int32(i), "movie", float32(i) / 10})
	}

	ins := engine.NewInsert(df, append([]record.Record(nil), want...))
	require.NoError(t, engine.Run(ins, func(record.Record) error { return nil }))
	require.NoError(t, ins.Err())

	got, err := engine.Drain(engine.NewFileScan(df))
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, rec := range got {
		require.Equal(t, int32(i), rec[0])
		require.Equal(t, float32(i)/10, rec[2])
	}
}

// TestAvgRatingAcrossDatabaseFiles mirrors a join feeding an aggregation,
// both sides read from on-disk database files rather than memory scans:
// movies joined against ratings by movie id, averaged per movie.
func TestAvgRatingAcrossDatabaseFiles(t *testing.T) {
	movieSchema := record.Schema{record.INT32, record.STRING}
	moviePath := filepath.Join(t.TempDir(), "movies.db")
	movies, err := dbfile.Open(moviePath, "demo", "movies", movieSchema)
	require.NoError(t, err)
	defer movies.Close()

	ratingSchema := record.Schema{record.INT32, record.FLOAT32}
	ratingPath := filepath.Join(t.TempDir(), "ratings.db")
	ratings, err := dbfile.Open(ratingPath, "demo", "ratings", ratingSchema)
	require.NoError(t, err)
	defer ratings.Close()

	movieRows := []record.Record{{int32(1), "Toy Story"}, {int32(2), "Jumanji"}}
	ratingRows := []record.Record{
		{int32(1), float32(4.0)},
		{int32(1), float32(5.0)},
		{int32(2), float32(3.0)},
	}

	insMovies := engine.NewInsert(movies, movieRows)
	require.NoError(t, engine.Run(insMovies, func(record.Record) error { return nil }))
	require.NoError(t, insMovies.Err())

	insRatings := engine.NewInsert(ratings, ratingRows)
	require.NoError(t, engine.Run(insRatings, func(record.Record) error { return nil }))
	require.NoError(t, insRatings.Err())

	leftSorted := engine.NewSort(func(r record.Record) any { return r[0] }, false)
	leftSorted.SetChild(engine.NewFileScan(movies))
	rightSorted := engine.NewSort(func(r record.Record) any { return r[0] }, false)
	rightSorted.SetChild(engine.NewFileScan(ratings))

	joined := engine.NewMergeJoin(leftSorted, rightSorted,
		func(r record.Record) any { return r[0] },
		func(r record.Record) any { return r[0] },
	)

	agg := engine.NewAggregation(
		func(r record.Record) any { return r[1] },
		func(r record.Record) any { return r[3] },
		"avg",
	)
	agg.SetChild(joined)

	got, err := engine.Drain(agg)
	require.NoError(t, err)
	require.Equal(t, []record.Record{
		{"Toy Story", 4.5},
		{"Jumanji", 3.0},
	}, got)
}
