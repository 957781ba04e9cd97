package engine

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/brayanjuls/csprimer-db/record"
)

// ErrUncomparable is returned when a Sort or MergeJoin key function
// produces values of a type this package does not know how to order.
var ErrUncomparable = errors.New("engine: uncomparable key values")

// Projection applies fn to every record produced by its child.
type Projection struct {
	child Operator
	fn    func(record.Record) record.Record
}

// NewProjection returns a Projection applying fn to each child record. fn
// must be pure: it receives the child's record and returns a new one.
func NewProjection(fn func(record.Record) record.Record) *Projection {
	return &Projection{fn: fn}
}

func (p *Projection) SetChild(child Operator) { p.child = child }
func (p *Projection) HasNext() bool           { return p.child.HasNext() }

func (p *Projection) Next() (record.Record, error) {
	if !p.child.HasNext() {
		return nil, io.EOF
	}
	rec, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	return p.fn(rec), nil
}

func (p *Projection) Reset() error { return p.child.Reset() }
func (p *Projection) Close() error { return p.child.Close() }

// Selection yields only child records for which pred is true. A rejected
// record still advances the child, relying on Run's retry-on-EOF contract
// to make forward progress without the caller special-casing rejection.
type Selection struct {
	child Operator
	pred  func(record.Record) bool
}

// NewSelection returns a Selection over pred.
func NewSelection(pred func(record.Record) bool) *Selection {
	return &Selection{pred: pred}
}

func (s *Selection) SetChild(child Operator) { s.child = child }
func (s *Selection) HasNext() bool           { return s.child.HasNext() }

func (s *Selection) Next() (record.Record, error) {
	if !s.child.HasNext() {
		return nil, io.EOF
	}
	rec, err := s.child.Next()
	if err != nil {
		return nil, err
	}
	if s.pred(rec) {
		return rec, nil
	}
	return nil, io.EOF
}

func (s *Selection) Reset() error { return s.child.Reset() }
func (s *Selection) Close() error { return s.child.Close() }

// Limit skips the first offset records produced by its child, then yields
// at most n records, terminating early regardless of whether the child is
// exhausted.
type Limit struct {
	child   Operator
	n       int
	offset  int
	fetched int
}

// NewLimit returns a Limit yielding at most n records after skipping
// offset.
func NewLimit(n, offset int) *Limit {
	return &Limit{n: n, offset: offset, fetched: -offset}
}

func (l *Limit) SetChild(child Operator) { l.child = child }

func (l *Limit) HasNext() bool {
	return l.child.HasNext() && l.fetched < l.n
}

func (l *Limit) Next() (record.Record, error) {
	if !l.HasNext() {
		return nil, io.EOF
	}
	rec, err := l.child.Next()
	if err != nil {
		return nil, err
	}
	if l.n > l.fetched {
		l.fetched++
		if l.fetched > 0 {
			return rec, nil
		}
	}
	return nil, io.EOF
}

func (l *Limit) Reset() error {
	l.fetched = -l.offset
	return l.child.Reset()
}

func (l *Limit) Close() error { return l.child.Close() }

// Sort fully materializes its child on the first Next call and performs a
// stable sort by key, ascending unless desc. Stability matters: an
// upstream MergeJoin over equal keys depends on input order surviving the
// sort.
type Sort struct {
	child Operator
	key   func(record.Record) any
	desc  bool

	materialized bool
	buf          []record.Record
	idx          int
	err          error
}

// NewSort returns a Sort ordering by key, ascending unless desc is true.
func NewSort(key func(record.Record) any, desc bool) *Sort {
	return &Sort{key: key, desc: desc}
}

func (s *Sort) SetChild(child Operator) { s.child = child }

func (s *Sort) HasNext() bool {
	if !s.materialized {
		return s.child.HasNext()
	}
	return s.idx < len(s.buf)
}

func (s *Sort) Next() (record.Record, error) {
	if !s.materialized {
		if err := s.materialize(); err != nil {
			s.err = err
		}
		s.materialized = true
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.idx >= len(s.buf) {
		return nil, io.EOF
	}
	rec := s.buf[s.idx]
	s.idx++
	return rec, nil
}

type sortItem struct {
	rec record.Record
	key any
}

func (s *Sort) materialize() error {
	recs, err := drain(s.child)
	if err != nil {
		return err
	}

	items := make([]sortItem, len(recs))
	for i, r := range recs {
		items[i] = sortItem{rec: r, key: s.key(r)}
	}

	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		cmp, err := compareValues(items[i].key, items[j].key)
		if err != nil {
			sortErr = err
			return false
		}
		if s.desc {
			return cmp > 0
		}
		return cmp < 0
	})
	if sortErr != nil {
		return sortErr
	}

	s.buf = make([]record.Record, len(items))
	for i, it := range items {
		s.buf[i] = it.rec
	}
	return nil
}

func (s *Sort) Reset() error {
	s.materialized = false
	s.idx = 0
	s.buf = nil
	s.err = nil
	return s.child.Reset()
}

func (s *Sort) Close() error { return s.child.Close() }

// compareValues orders two key values of the same underlying type, used by
// Sort and MergeJoin. It supports the primitive types this engine persists
// and scans: int32/float32 from the record codec, plus the wider numeric
// and string types callers commonly derive keys from.
func compareValues(a, b any) (int, error) {
	switch x := a.(type) {
	case int32:
		y, ok := b.(int32)
		if !ok {
			return 0, fmt.Errorf("%w: %T vs %T", ErrUncomparable, a, b)
		}
		return compareOrdered(x, y), nil
	case int:
		y, ok := b.(int)
		if !ok {
			return 0, fmt.Errorf("%w: %T vs %T", ErrUncomparable, a, b)
		}
		return compareOrdered(x, y), nil
	case int64:
		y, ok := b.(int64)
		if !ok {
			return 0, fmt.Errorf("%w: %T vs %T", ErrUncomparable, a, b)
		}
		return compareOrdered(x, y), nil
	case float32:
		y, ok := b.(float32)
		if !ok {
			return 0, fmt.Errorf("%w: %T vs %T", ErrUncomparable, a, b)
		}
		return compareOrdered(x, y), nil
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, fmt.Errorf("%w: %T vs %T", ErrUncomparable, a, b)
		}
		return compareOrdered(x, y), nil
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("%w: %T vs %T", ErrUncomparable, a, b)
		}
		return compareOrdered(x, y), nil
	default:
		return 0, fmt.Errorf("%w: key type %T", ErrUncomparable, a)
	}
}

func compareOrdered[T int | int32 | int64 | float32 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
