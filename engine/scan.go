package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/brayanjuls/csprimer-db/dbfile"
	"github.com/brayanjuls/csprimer-db/record"
)

// ErrIO wraps failures reading a CSV source.
var ErrIO = errors.New("engine: io error")

// MemoryScan yields records from an in-memory slice. It is the leaf used
// throughout the test suite and anywhere a caller already holds its data as
// Go values.
type MemoryScan struct {
	table []record.Record
	idx   int
}

// NewMemoryScan returns a scan over table, in order.
func NewMemoryScan(table []record.Record) *MemoryScan {
	return &MemoryScan{table: table}
}

func (s *MemoryScan) HasNext() bool { return s.idx < len(s.table) }

func (s *MemoryScan) Next() (record.Record, error) {
	if !s.HasNext() {
		return nil, io.EOF
	}
	rec := s.table[s.idx]
	s.idx++
	return rec, nil
}

func (s *MemoryScan) Reset() error { s.idx = 0; return nil }
func (s *MemoryScan) Close() error { return nil }

// CSVFileScan streams a CSV file, discarding its header line and splitting
// each subsequent line on commas. Cells are read verbatim: the original
// source's fixtures depend on the trailing newline of the last cell on each
// line surviving into that cell, so lines are not trimmed before splitting.
type CSVFileScan struct {
	path  string
	chunk int

	f *os.File
	r *bufio.Reader

	buf []record.Record
	err error
}

// NewCSVFileScan opens path and returns a scan that buffers up to chunk
// rows per underlying read.
func NewCSVFileScan(path string, chunk int) (*CSVFileScan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	s := &CSVFileScan{path: path, chunk: chunk, f: f, r: bufio.NewReader(f)}
	if _, err := s.r.ReadString('\n'); err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("%w: read header: %w", ErrIO, err)
	}
	return s, nil
}

func (s *CSVFileScan) fill() {
	if s.err != nil || len(s.buf) > 0 {
		return
	}

	rows := 0
	for {
		line, err := s.r.ReadString('\n')
		if len(line) > 0 {
			cells := strings.Split(line, ",")
			row := make(record.Record, len(cells))
			for i, c := range cells {
				row[i] = c
			}
			s.buf = append(s.buf, row)
			rows++
		}
		if err != nil {
			if err != io.EOF {
				s.err = fmt.Errorf("%w: read %s: %w", ErrIO, s.path, err)
			}
			return
		}
		if rows >= s.chunk {
			return
		}
	}
}

func (s *CSVFileScan) HasNext() bool {
	s.fill()
	return s.err == nil && len(s.buf) > 0
}

func (s *CSVFileScan) Next() (record.Record, error) {
	s.fill()
	if s.err != nil {
		return nil, s.err
	}
	if len(s.buf) == 0 {
		return nil, io.EOF
	}
	rec := s.buf[0]
	s.buf = s.buf[1:]
	return rec, nil
}

func (s *CSVFileScan) Reset() error {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek %s: %w", ErrIO, s.path, err)
	}
	s.r = bufio.NewReader(s.f)
	if _, err := s.r.ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("%w: read header: %w", ErrIO, err)
	}
	s.buf = nil
	s.err = nil
	return nil
}

func (s *CSVFileScan) Close() error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, s.path, err)
	}
	return nil
}

// FileScan pulls pages one at a time from a database file, popping records
// from the front of each page's decoded record list in slot order.
type FileScan struct {
	file   *dbfile.DatabaseFile
	schema record.Schema

	records []record.Record
	err     error
}

// NewFileScan returns a scan over every record stored in df, in file
// order.
func NewFileScan(df *dbfile.DatabaseFile) *FileScan {
	return &FileScan{file: df, schema: df.Schema()}
}

func (s *FileScan) ensureRecords() {
	for s.err == nil && len(s.records) == 0 {
		p, ok, err := s.file.ReadNextPage()
		if err != nil {
			s.err = err
			return
		}
		if !ok {
			return
		}
		recs, err := p.Records(s.schema)
		if err != nil {
			s.err = err
			return
		}
		s.records = recs
	}
}

func (s *FileScan) HasNext() bool {
	s.ensureRecords()
	return s.err == nil && len(s.records) > 0
}

func (s *FileScan) Next() (record.Record, error) {
	if !s.HasNext() {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	rec := s.records[0]
	s.records = s.records[1:]
	return rec, nil
}

func (s *FileScan) Reset() error {
	s.file.ResetScan()
	s.records = nil
	s.err = nil
	return nil
}

func (s *FileScan) Close() error { return nil }
