package dbfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/brayanjuls/csprimer-db/page"
	"github.com/brayanjuls/csprimer-db/record"
)

// HeaderSize is the fixed width of a database file's header, preceding the
// first page.
const HeaderSize = 400

const (
	dbNameOffset     = 0
	dbNameLen        = 64
	tableNameOffset  = dbNameOffset + dbNameLen
	tableNameLen     = 64
	schemaOffset     = tableNameOffset + tableNameLen
	schemaLen        = 256
	tableSizeOffset  = schemaOffset + schemaLen
	startOffsetOff   = tableSizeOffset + 4
	endOffsetOffset  = startOffsetOff + 4
)

// ErrSchema is returned when a file header's schema descriptor cannot be
// parsed back into a Schema.
var ErrSchema = errors.New("dbfile: schema error")

// Header is the 400-byte file header preceding the page sequence: database
// and table names, the schema descriptor, and the three size fields that
// track how far the page sequence extends.
type Header struct {
	DBName      string
	TableName   string
	Schema      record.Schema
	TableSize   int32
	StartOffset int32
	EndOffset   int64
}

func newHeader(dbName, tableName string, schema record.Schema) *Header {
	return &Header{
		DBName:      dbName,
		TableName:   tableName,
		Schema:      schema,
		StartOffset: HeaderSize,
		EndOffset:   HeaderSize + page.Size,
		TableSize:   HeaderSize + page.Size,
	}
}

func encodeHeader(h *Header) ([]byte, error) {
	if len(h.DBName) > dbNameLen {
		return nil, fmt.Errorf("%w: database name %q exceeds %d bytes", ErrSchema, h.DBName, dbNameLen)
	}
	if len(h.TableName) > tableNameLen {
		return nil, fmt.Errorf("%w: table name %q exceeds %d bytes", ErrSchema, h.TableName, tableNameLen)
	}
	descriptor := h.Schema.String()
	if len(descriptor) > schemaLen {
		return nil, fmt.Errorf("%w: schema descriptor exceeds %d bytes", ErrSchema, schemaLen)
	}

	buf := make([]byte, HeaderSize)
	copy(buf[dbNameOffset:dbNameOffset+dbNameLen], h.DBName)
	copy(buf[tableNameOffset:tableNameOffset+tableNameLen], h.TableName)
	copy(buf[schemaOffset:schemaOffset+schemaLen], descriptor)
	binary.LittleEndian.PutUint32(buf[tableSizeOffset:tableSizeOffset+4], uint32(h.TableSize))
	binary.LittleEndian.PutUint32(buf[startOffsetOff:startOffsetOff+4], uint32(h.StartOffset))
	binary.LittleEndian.PutUint64(buf[endOffsetOffset:endOffsetOffset+8], uint64(h.EndOffset))
	return buf, nil
}

func decodeHeader(buf []byte) (*Header, error) {
	if len(buf) != HeaderSize {
		return nil, fmt.Errorf("%w: expected %d byte header, got %d", ErrSchema, HeaderSize, len(buf))
	}

	dbName := cString(buf[dbNameOffset : dbNameOffset+dbNameLen])
	tableName := cString(buf[tableNameOffset : tableNameOffset+tableNameLen])
	descriptor := cString(buf[schemaOffset : schemaOffset+schemaLen])

	schema, err := record.ParseSchema(descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	tableSize := int32(binary.LittleEndian.Uint32(buf[tableSizeOffset : tableSizeOffset+4]))
	startOffset := int32(binary.LittleEndian.Uint32(buf[startOffsetOff : startOffsetOff+4]))
	endOffset := int64(binary.LittleEndian.Uint64(buf[endOffsetOffset : endOffsetOffset+8]))

	if (endOffset-int64(startOffset))%page.Size != 0 || endOffset < int64(startOffset) {
		return nil, fmt.Errorf("%w: end_offset %d is not start_offset %d plus a multiple of %d", ErrSchema, endOffset, startOffset, page.Size)
	}
	if tableSize != startOffset+int32(endOffset-int64(startOffset)) {
		return nil, fmt.Errorf("%w: table_size %d inconsistent with start/end offsets", ErrSchema, tableSize)
	}

	return &Header{
		DBName:      dbName,
		TableName:   tableName,
		Schema:      schema,
		TableSize:   tableSize,
		StartOffset: startOffset,
		EndOffset:   endOffset,
	}, nil
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
