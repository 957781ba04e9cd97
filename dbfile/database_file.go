// Package dbfile implements the database file format: a 400-byte header
// followed by a contiguous sequence of slotted pages. It follows the
// teacher's file-manager idiom of one mutex-guarded *os.File per table,
// read and written in page-sized chunks at explicit offsets, adapted from a
// multi-file block store to this format's single file per table.
package dbfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/brayanjuls/csprimer-db/page"
	"github.com/brayanjuls/csprimer-db/record"
)

// ErrIO wraps every I/O failure against the underlying file.
var ErrIO = errors.New("dbfile: io error")

// DatabaseFile is a single table's on-disk file: a header plus a sequence
// of pages. It keeps at most one page resident in memory at a time, the
// tail page under construction, matching the no-buffer-pool resource
// policy.
type DatabaseFile struct {
	mu sync.Mutex

	f      *os.File
	header *Header

	tail       *page.Page
	tailOffset int64

	readOffset int64
}

// Open opens the database file at path, creating it if absent. An absent
// file is initialized with a freshly encoded header and one empty resident
// page; an existing file has its header read and validated.
func Open(path, dbName, tableName string, schema record.Schema) (*DatabaseFile, error) {
	info, statErr := os.Stat(path)

	switch {
	case statErr == nil:
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrIO, path)
		}
		return openExisting(path)

	case os.IsNotExist(statErr):
		return create(path, dbName, tableName, schema)

	default:
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, statErr)
	}
}

func create(path, dbName, tableName string, schema record.Schema) (*DatabaseFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}

	header := newHeader(dbName, tableName, schema)
	buf, err := encodeHeader(header)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.WriteAt(buf, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: write header: %w", ErrIO, err)
	}

	return &DatabaseFile{
		f:          f,
		header:     header,
		tail:       page.New(),
		tailOffset: int64(header.EndOffset) - page.Size,
		readOffset: int64(header.StartOffset),
	}, nil
}

func openExisting(path string) (*DatabaseFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: read header: %w", ErrIO, err)
	}

	header, err := decodeHeader(buf)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &DatabaseFile{
		f:          f,
		header:     header,
		tailOffset: header.EndOffset - page.Size,
		readOffset: int64(header.StartOffset),
	}, nil
}

// Schema returns the table's column schema, as parsed from the header.
func (df *DatabaseFile) Schema() record.Schema {
	return df.header.Schema
}

func (df *DatabaseFile) ensureTailLoaded() error {
	if df.tail != nil {
		return nil
	}

	buf := make([]byte, page.Size)
	n, err := df.f.ReadAt(buf, df.tailOffset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: read tail page: %w", ErrIO, err)
	}
	if n < page.Size {
		df.tail = page.New()
		return nil
	}

	p, err := page.Decode(buf)
	if err != nil {
		return err
	}
	df.tail = p
	return nil
}

// Append encodes rec against the file's schema and adds it to the resident
// tail page, overflowing into a freshly allocated page when the tail is
// full.
func (df *DatabaseFile) Append(rec record.Record) error {
	df.mu.Lock()
	defer df.mu.Unlock()

	buf, err := record.Encode(rec, df.header.Schema)
	if err != nil {
		return err
	}

	if err := df.ensureTailLoaded(); err != nil {
		return err
	}

	if !df.tail.Fits(len(buf)) {
		if err := df.flushTailLocked(); err != nil {
			return err
		}
		df.tail = page.New()
		df.tailOffset = df.header.EndOffset
		df.header.EndOffset += page.Size
		df.header.TableSize = df.header.StartOffset + int32(df.header.EndOffset-int64(df.header.StartOffset))
	}

	return df.tail.Insert(buf)
}

// WriteDirty flushes the resident tail page and the header to disk.
func (df *DatabaseFile) WriteDirty() error {
	df.mu.Lock()
	defer df.mu.Unlock()
	return df.flushTailLocked()
}

func (df *DatabaseFile) flushTailLocked() error {
	if df.tail == nil {
		return nil
	}
	if _, err := df.f.WriteAt(df.tail.Bytes(), df.tailOffset); err != nil {
		return fmt.Errorf("%w: write tail page: %w", ErrIO, err)
	}

	hdrBuf, err := encodeHeader(df.header)
	if err != nil {
		return err
	}
	if _, err := df.f.WriteAt(hdrBuf, 0); err != nil {
		return fmt.Errorf("%w: write header: %w", ErrIO, err)
	}
	return nil
}

// ResetScan repositions the sequential read cursor to the first page.
func (df *DatabaseFile) ResetScan() {
	df.mu.Lock()
	defer df.mu.Unlock()
	df.readOffset = int64(df.header.StartOffset)
}

// ReadNextPage reads the next page from the current scan cursor, in file
// order. It returns (nil, false, nil) at a clean end of the page sequence.
func (df *DatabaseFile) ReadNextPage() (*page.Page, bool, error) {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.readOffset >= df.header.EndOffset {
		return nil, false, nil
	}

	buf := make([]byte, page.Size)
	n, err := df.f.ReadAt(buf, df.readOffset)
	if err != nil && !(err == io.EOF && n == page.Size) {
		return nil, false, fmt.Errorf("%w: read page at %d: %w", ErrIO, df.readOffset, err)
	}

	p, err := page.Decode(buf)
	if err != nil {
		return nil, false, err
	}

	df.readOffset += page.Size
	return p, true, nil
}

// Close flushes any dirty tail page and releases the file handle.
func (df *DatabaseFile) Close() error {
	if err := df.WriteDirty(); err != nil {
		return err
	}
	if err := df.f.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrIO, err)
	}
	return nil
}
