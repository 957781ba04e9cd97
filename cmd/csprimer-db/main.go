package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brayanjuls/csprimer-db/dbfile"
	"github.com/brayanjuls/csprimer-db/engine"
	"github.com/brayanjuls/csprimer-db/record"
)

type hook interface {
	OnStart() error
	OnEnd() error
}

var hooks []hook

func main() {
	for _, h := range hooks {
		if err := h.OnStart(); err != nil {
			fmt.Fprintf(os.Stderr, "error starting hook: %s\n", err)
			os.Exit(1)
		}
	}
	defer func() {
		for _, h := range hooks {
			h.OnEnd()
		}
	}()

	var (
		path   = flag.String("file", "birds.db", "path to the database file")
		db     = flag.String("db", "demo", "database name, recorded in new files")
		table  = flag.String("table", "birds", "table name, recorded in new files")
		schema = flag.String("schema", "str,str,float,str", "column schema for new files: comma-joined int/float/str tags, one per column (id,name,weight,in_us)")
		seed   = flag.Bool("seed", false, "insert the sample bird records before querying")
	)
	flag.Parse()

	if err := run(*path, *db, *table, *schema, *seed); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path, dbName, table, schemaDesc string, seed bool) error {
	schema, err := record.ParseSchema(schemaDesc)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	file, err := dbfile.Open(path, dbName, table, schema)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if seed {
		ins := engine.NewInsert(file, sampleBirds())
		if err := engine.Run(ins, func(record.Record) error { return nil }); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if err := ins.Err(); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	root := engine.Q(
		engine.NewProjection(func(r record.Record) record.Record { return record.Record{r[0], r[2]} }),
		engine.NewLimit(5, 0),
		engine.NewSort(func(r record.Record) any { return r[2] }, true),
		engine.NewFileScan(file),
	)

	start := time.Now()
	n := 0
	err = engine.Run(root, func(rec record.Record) error {
		fmt.Printf("%v\n", rec)
		n++
		return nil
	})
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	fmt.Printf("%d rows in %s\n", n, time.Since(start))
	return nil
}

func sampleBirds() []record.Record {
	return []record.Record{
		{"amerob", "American Robin", float32(0.077), "true"},
		{"baleag", "Bald Eagle", float32(4.74), "true"},
		{"ostric1", "Ostrich", float32(104.0), "false"},
		{"emppen1", "Emperor Penguin", float32(23.0), "false"},
		{"wanalb", "Wandering Albatross", float32(8.5), "false"},
	}
}
