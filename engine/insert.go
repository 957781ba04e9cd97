package engine

import (
	"io"

	"github.com/brayanjuls/csprimer-db/dbfile"
	"github.com/brayanjuls/csprimer-db/record"
)

// Insert is the append-path writer: it pops one record per Next call and
// appends it to a database file, flushing pending pages to disk once the
// records are exhausted. It emits no output tuples to the driver.
//
// HasNext, not Next, is where the final flush happens: Run always calls
// Next first and only consults HasNext when Next signals end-of-input, so
// flushing there is what makes the flush run exactly once, right after the
// last record is appended, without a trailing Next call against an empty
// queue. Since HasNext cannot return an error, a flush failure is stashed
// and surfaced through Err after the pipeline finishes draining.
type Insert struct {
	file    *dbfile.DatabaseFile
	records []record.Record
	err     error
}

// NewInsert returns an Insert that writes records to df.
func NewInsert(df *dbfile.DatabaseFile, records []record.Record) *Insert {
	return &Insert{file: df, records: records}
}

func (ins *Insert) HasNext() bool {
	if len(ins.records) > 0 {
		return true
	}
	if ins.err == nil {
		ins.err = ins.file.WriteDirty()
	}
	return false
}

func (ins *Insert) Next() (record.Record, error) {
	if len(ins.records) == 0 {
		return nil, io.EOF
	}

	rec := ins.records[0]
	ins.records = ins.records[1:]
	if err := ins.file.Append(rec); err != nil {
		ins.err = err
		return nil, err
	}
	return nil, io.EOF
}

// Err returns the first error encountered appending records or flushing the
// file, if any. Call it after draining the pipeline to completion.
func (ins *Insert) Err() error { return ins.err }

func (ins *Insert) Reset() error { return nil }
func (ins *Insert) Close() error { return nil }
