package record_test

import (
	"testing"

	"github.com/brayanjuls/csprimer-db/record"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	schema := record.Schema{record.INT32, record.FLOAT32, record.STRING}
	rec := record.Record{int32(42), float32(3.25), "hello"}

	buf, err := record.Encode(rec, schema)
	require.NoError(t, err)
	require.Len(t, buf, 4+4+1+len("hello"))

	got, err := record.Decode(buf, schema)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestEncodeAcceptsPlainInt(t *testing.T) {
	schema := record.Schema{record.INT32}
	buf, err := record.Encode(record.Record{7}, schema)
	require.NoError(t, err)

	got, err := record.Decode(buf, schema)
	require.NoError(t, err)
	require.Equal(t, record.Record{int32(7)}, got)
}

func TestEncodeNegativeInt32(t *testing.T) {
	schema := record.Schema{record.INT32}
	buf, err := record.Encode(record.Record{int32(-12345)}, schema)
	require.NoError(t, err)

	got, err := record.Decode(buf, schema)
	require.NoError(t, err)
	require.Equal(t, record.Record{int32(-12345)}, got)
}

func TestEncodeRejectsOversizedString(t *testing.T) {
	schema := record.Schema{record.STRING}
	huge := make([]byte, 256)
	for i := range huge {
		huge[i] = 'a'
	}

	_, err := record.Encode(record.Record{string(huge)}, schema)
	require.ErrorIs(t, err, record.ErrEncode)
}

func TestEncodeRejectsColumnCountMismatch(t *testing.T) {
	schema := record.Schema{record.INT32, record.INT32}
	_, err := record.Encode(record.Record{int32(1)}, schema)
	require.ErrorIs(t, err, record.ErrEncode)
}

func TestEncodeRejectsWrongType(t *testing.T) {
	schema := record.Schema{record.INT32}
	_, err := record.Encode(record.Record{"not an int"}, schema)
	require.ErrorIs(t, err, record.ErrEncode)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	schema := record.Schema{record.INT32, record.STRING}
	_, err := record.Decode([]byte{1, 0}, schema)
	require.ErrorIs(t, err, record.ErrDecode)
}

func TestDecodeRejectsTruncatedString(t *testing.T) {
	schema := record.Schema{record.STRING}
	// length prefix claims 5 bytes but only 2 are present
	_, err := record.Decode([]byte{5, 'h', 'i'}, schema)
	require.ErrorIs(t, err, record.ErrDecode)
}

func TestSizeMatchesEncodedLength(t *testing.T) {
	schema := record.Schema{record.INT32, record.STRING, record.FLOAT32}
	rec := record.Record{int32(1), "abc", float32(1.5)}

	size, err := record.Size(rec, schema)
	require.NoError(t, err)

	buf, err := record.Encode(rec, schema)
	require.NoError(t, err)
	require.Equal(t, len(buf), size)
}

func TestSchemaRoundTrip(t *testing.T) {
	schema, err := record.ParseSchema("int,float,str")
	require.NoError(t, err)
	require.Equal(t, record.Schema{record.INT32, record.FLOAT32, record.STRING}, schema)
	require.Equal(t, "int,float,str", schema.String())
}

func TestParseSchemaRejectsUnknownTag(t *testing.T) {
	_, err := record.ParseSchema("int,blob")
	require.ErrorIs(t, err, record.ErrUnknownType)
}
