// Package record defines the typed schema and tuple representation shared
// by the page codec, the database file format, and every query operator.
package record

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnType is one of the three primitive types a database file column
// can hold. It is the Go equivalent of the schema descriptor's type tags.
type ColumnType int8

const (
	INT32 ColumnType = iota
	FLOAT32
	STRING
)

var ErrUnknownType = errors.New("record: unknown column type")

var typeTags = [...]string{
	INT32:   "int",
	FLOAT32: "float",
	STRING:  "str",
}

// String renders the type as its on-disk tag ("int", "float", "str").
func (t ColumnType) String() string {
	if int(t) < 0 || int(t) >= len(typeTags) {
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
	return typeTags[t]
}

func columnTypeFromTag(tag string) (ColumnType, error) {
	switch tag {
	case "int":
		return INT32, nil
	case "float":
		return FLOAT32, nil
	case "str":
		return STRING, nil
	default:
		return 0, fmt.Errorf("record: %w: %q", ErrUnknownType, tag)
	}
}

// Schema is an ordered sequence of column types. It is immutable for the
// life of a database file.
type Schema []ColumnType

// ParseSchema decodes the comma-joined type tag list stored in a file
// header back into a Schema.
func ParseSchema(descriptor string) (Schema, error) {
	tags := strings.Split(descriptor, ",")
	schema := make(Schema, 0, len(tags))
	for _, tag := range tags {
		t, err := columnTypeFromTag(tag)
		if err != nil {
			return nil, err
		}
		schema = append(schema, t)
	}
	return schema, nil
}

// String renders the schema back into its comma-joined tag form, the
// inverse of ParseSchema.
func (s Schema) String() string {
	tags := make([]string, len(s))
	for i, t := range s {
		tags[i] = t.String()
	}
	return strings.Join(tags, ",")
}
