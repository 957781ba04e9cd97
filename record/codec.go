package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrEncode is returned when a Record cannot be encoded against a Schema:
// an oversized string, a value of the wrong Go type, or an out-of-range
// integer.
var ErrEncode = errors.New("record: encode error")

// ErrDecode is returned when a byte slice cannot be decoded against a
// Schema, typically because it is shorter than the schema demands.
var ErrDecode = errors.New("record: decode error")

// maxStringLen is the largest STRING payload encodable: its length prefix
// is a single unsigned byte.
const maxStringLen = 255

// Encode serializes rec against schema using the on-disk layout from the
// record codec: INT32 and FLOAT32 as 4 little-endian bytes, STRING as a
// 1-byte length prefix followed by its UTF-8 bytes.
func Encode(rec Record, schema Schema) ([]byte, error) {
	if len(rec) != len(schema) {
		return nil, fmt.Errorf("%w: record has %d columns, schema has %d", ErrEncode, len(rec), len(schema))
	}

	buf := make([]byte, 0, estimateSize(rec, schema))
	for i, col := range schema {
		var err error
		buf, err = appendColumn(buf, col, rec[i])
		if err != nil {
			return nil, fmt.Errorf("%w: column %d: %w", ErrEncode, i, err)
		}
	}
	return buf, nil
}

func estimateSize(rec Record, schema Schema) int {
	n := 0
	for i, col := range schema {
		switch col {
		case INT32, FLOAT32:
			n += 4
		case STRING:
			if s, ok := rec[i].(string); ok {
				n += 1 + len(s)
			}
		}
	}
	return n
}

func appendColumn(buf []byte, col ColumnType, v any) ([]byte, error) {
	switch col {
	case INT32:
		i, err := asInt32(v)
		if err != nil {
			return nil, err
		}
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(i))
		return append(buf, tmp[:]...), nil
	case FLOAT32:
		f, err := asFloat32(v)
		if err != nil {
			return nil, err
		}
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(f))
		return append(buf, tmp[:]...), nil
	case STRING:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrEncode, v)
		}
		if len(s) > maxStringLen {
			return nil, fmt.Errorf("%w: string of %d bytes exceeds %d byte limit", ErrEncode, len(s), maxStringLen)
		}
		buf = append(buf, byte(len(s)))
		return append(buf, s...), nil
	default:
		return nil, fmt.Errorf("%w: %w", ErrEncode, ErrUnknownType)
	}
}

func asInt32(v any) (int32, error) {
	switch n := v.(type) {
	case int32:
		return n, nil
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: int %d out of int32 range", ErrEncode, n)
		}
		return int32(n), nil
	default:
		return 0, fmt.Errorf("%w: expected int32, got %T", ErrEncode, v)
	}
}

func asFloat32(v any) (float32, error) {
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	default:
		return 0, fmt.Errorf("%w: expected float32, got %T", ErrEncode, v)
	}
}

// Decode parses buf against schema, advancing a cursor as each column is
// consumed so that variable-length STRING columns are parsed positionally.
// It fails with ErrDecode if buf is shorter than the schema requires.
func Decode(buf []byte, schema Schema) (Record, error) {
	rec := make(Record, len(schema))
	cursor := 0

	for i, col := range schema {
		switch col {
		case INT32:
			if cursor+4 > len(buf) {
				return nil, fmt.Errorf("%w: truncated int32 column %d", ErrDecode, i)
			}
			rec[i] = int32(binary.LittleEndian.Uint32(buf[cursor : cursor+4]))
			cursor += 4
		case FLOAT32:
			if cursor+4 > len(buf) {
				return nil, fmt.Errorf("%w: truncated float32 column %d", ErrDecode, i)
			}
			rec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[cursor : cursor+4]))
			cursor += 4
		case STRING:
			if cursor+1 > len(buf) {
				return nil, fmt.Errorf("%w: truncated string length prefix at column %d", ErrDecode, i)
			}
			l := int(buf[cursor])
			cursor++
			if cursor+l > len(buf) {
				return nil, fmt.Errorf("%w: truncated string column %d", ErrDecode, i)
			}
			rec[i] = string(buf[cursor : cursor+l])
			cursor += l
		default:
			return nil, fmt.Errorf("%w: %w", ErrDecode, ErrUnknownType)
		}
	}

	return rec, nil
}

// Size returns the number of bytes rec would occupy if encoded against
// schema, without allocating. dbfile.Append does not call it: it encodes
// the record first and tests page free space against the encoded length.
func Size(rec Record, schema Schema) (int, error) {
	if len(rec) != len(schema) {
		return 0, fmt.Errorf("%w: record has %d columns, schema has %d", ErrEncode, len(rec), len(schema))
	}
	n := 0
	for i, col := range schema {
		switch col {
		case INT32, FLOAT32:
			n += 4
		case STRING:
			s, ok := rec[i].(string)
			if !ok {
				return 0, fmt.Errorf("%w: expected string, got %T", ErrEncode, rec[i])
			}
			if len(s) > maxStringLen {
				return 0, fmt.Errorf("%w: string of %d bytes exceeds %d byte limit", ErrEncode, len(s), maxStringLen)
			}
			n += 1 + len(s)
		default:
			return 0, fmt.Errorf("%w: %w", ErrEncode, ErrUnknownType)
		}
	}
	return n, nil
}
