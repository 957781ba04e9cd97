package record

// Record is an ordered tuple of values. Its i-th value matches the i-th
// column of whatever Schema it is read or written against.
//
// Records produced by operators that never touch the database file
// (MemoryScan, CSVFileScan, and anything derived from them) are not bound
// to a Schema at all: their columns can hold any comparable Go value, the
// way the original source's plain Python tuples do. Only Encode/Decode,
// which move a Record across the page boundary, constrain columns to
// int32, float32 and string.
type Record []any

// Clone returns a shallow copy of r. The engine's buffering operators (Sort,
// the join build sides) keep the child's records as they are and do not
// call Clone.
func (r Record) Clone() Record {
	cp := make(Record, len(r))
	copy(cp, r)
	return cp
}
