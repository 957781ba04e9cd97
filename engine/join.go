package engine

import (
	"io"

	"github.com/brayanjuls/csprimer-db/record"
)

// NestedLoopJoin pulls one left record, drains the right side into an
// output buffer of concatenations, then resets the right side before
// pulling the next left record. With no predicate attached it produces the
// full cartesian product; a wrapping Selection applies any join condition.
//
// Grounded on the teacher's Product scan (two-pointer: advance the inner
// scan, and on its exhaustion reset it and advance the outer one).
type NestedLoopJoin struct {
	left, right Operator
	buf         []record.Record
}

// NewNestedLoopJoin returns a NestedLoopJoin over left and right.
func NewNestedLoopJoin(left, right Operator) *NestedLoopJoin {
	return &NestedLoopJoin{left: left, right: right}
}

func (j *NestedLoopJoin) HasNext() bool {
	return j.left.HasNext() || len(j.buf) > 0
}

func (j *NestedLoopJoin) Next() (record.Record, error) {
	if len(j.buf) > 0 {
		rec := j.buf[0]
		j.buf = j.buf[1:]
		return rec, nil
	}

	if !j.left.HasNext() {
		return nil, io.EOF
	}

	leftV, err := j.left.Next()
	if err != nil {
		return nil, err
	}

	for j.right.HasNext() {
		rightV, err := j.right.Next()
		if err != nil {
			return nil, err
		}
		j.buf = append(j.buf, concat(leftV, rightV))
	}
	if err := j.right.Reset(); err != nil {
		return nil, err
	}

	if len(j.buf) > 0 {
		rec := j.buf[0]
		j.buf = j.buf[1:]
		return rec, nil
	}
	return nil, io.EOF
}

func (j *NestedLoopJoin) Reset() error {
	if err := j.left.Reset(); err != nil {
		return err
	}
	if err := j.right.Reset(); err != nil {
		return err
	}
	j.buf = nil
	return nil
}

func (j *NestedLoopJoin) Close() error {
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}

// HashJoin builds a mapping from left_key(l) to the left records sharing
// that key, then streams the right side, emitting one concatenation per
// left record whose key matches. Memory use is proportional to |left|; the
// caller picks the smaller side as left.
type HashJoin struct {
	left, right        Operator
	leftKey, rightKey  func(record.Record) any
	table              map[any][]record.Record
	built              bool
	pendingLeft        []record.Record
	currentRight       record.Record
}

// NewHashJoin returns a HashJoin keyed by leftKey on the build side and
// rightKey on the probe side.
func NewHashJoin(left, right Operator, leftKey, rightKey func(record.Record) any) *HashJoin {
	return &HashJoin{left: left, right: right, leftKey: leftKey, rightKey: rightKey}
}

func (j *HashJoin) HasNext() bool {
	if !j.built {
		return true
	}
	return j.right.HasNext() || len(j.pendingLeft) > 0
}

func (j *HashJoin) Next() (record.Record, error) {
	if !j.built {
		recs, err := drain(j.left)
		if err != nil {
			return nil, err
		}
		j.table = make(map[any][]record.Record, len(recs))
		for _, l := range recs {
			k := j.leftKey(l)
			j.table[k] = append(j.table[k], l)
		}
		j.built = true
	}

	if len(j.pendingLeft) > 0 {
		l := j.pendingLeft[0]
		j.pendingLeft = j.pendingLeft[1:]
		return concat(l, j.currentRight), nil
	}

	if !j.right.HasNext() {
		return nil, io.EOF
	}

	rightV, err := j.right.Next()
	if err != nil {
		return nil, err
	}

	bucket := j.table[j.rightKey(rightV)]
	if len(bucket) == 0 {
		return nil, io.EOF
	}

	j.currentRight = rightV
	j.pendingLeft = append([]record.Record{}, bucket...)
	l := j.pendingLeft[0]
	j.pendingLeft = j.pendingLeft[1:]
	return concat(l, rightV), nil
}

func (j *HashJoin) Reset() error {
	if err := j.left.Reset(); err != nil {
		return err
	}
	if err := j.right.Reset(); err != nil {
		return err
	}
	j.table = nil
	j.built = false
	j.pendingLeft = nil
	j.currentRight = nil
	return nil
}

func (j *HashJoin) Close() error {
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}

// MergeJoin requires both inputs sorted ascending by their join keys (the
// caller wraps each side in Sort). It supports one-to-many and
// many-to-many joins by buffering the contiguous run of right-side records
// matching the active left key: the left record that establishes a run
// matches directly against the right side as it arrives, and every
// subsequent left record sharing that key replays the buffered run instead
// of re-reading the right side.
type MergeJoin struct {
	left, right       Operator
	leftKey, rightKey func(record.Record) any

	l, r           record.Record
	rightExhausted bool

	groupKeySet bool
	groupKey    any
	buf         []record.Record
	replaying   bool
	replayIdx   int
}

// NewMergeJoin returns a MergeJoin over left and right, both assumed sorted
// ascending by leftKey/rightKey respectively.
func NewMergeJoin(left, right Operator, leftKey, rightKey func(record.Record) any) *MergeJoin {
	return &MergeJoin{left: left, right: right, leftKey: leftKey, rightKey: rightKey}
}

func (j *MergeJoin) HasNext() bool {
	if j.l != nil {
		return true
	}
	return j.left.HasNext()
}

func (j *MergeJoin) Next() (record.Record, error) {
	for {
		if j.l == nil {
			if !j.left.HasNext() {
				return nil, io.EOF
			}
			rec, err := j.left.Next()
			if err != nil {
				return nil, err
			}
			j.l = rec

			if j.groupKeySet {
				cmp, err := compareValues(j.leftKey(j.l), j.groupKey)
				if err != nil {
					return nil, err
				}
				if cmp == 0 {
					j.replaying = true
					j.replayIdx = 0
					continue
				}
			}
			j.replaying = false
			j.buf = nil
			j.groupKeySet = false
		}

		if j.replaying {
			if j.replayIdx < len(j.buf) {
				result := concat(j.l, j.buf[j.replayIdx])
				j.replayIdx++
				return result, nil
			}
			j.replaying = false
			j.l = nil
			continue
		}

		if j.r == nil && !j.rightExhausted {
			if j.right.HasNext() {
				rec, err := j.right.Next()
				if err != nil {
					return nil, err
				}
				j.r = rec
			} else {
				j.rightExhausted = true
			}
		}

		if j.r == nil {
			// Right is exhausted: nothing more can join unless this left
			// row continues the run already buffered while right was
			// still live.
			j.l = nil
			continue
		}

		cmp, err := compareValues(j.leftKey(j.l), j.rightKey(j.r))
		if err != nil {
			return nil, err
		}

		switch {
		case cmp == 0:
			if !j.groupKeySet {
				j.groupKeySet = true
				j.groupKey = j.leftKey(j.l)
				j.buf = nil
			}
			j.buf = append(j.buf, j.r)
			result := concat(j.l, j.r)
			j.r = nil
			return result, nil
		case cmp > 0:
			j.r = nil
		default:
			j.l = nil
		}
	}
}

func (j *MergeJoin) Reset() error {
	if err := j.left.Reset(); err != nil {
		return err
	}
	if err := j.right.Reset(); err != nil {
		return err
	}
	j.l, j.r = nil, nil
	j.rightExhausted = false
	j.groupKeySet = false
	j.groupKey = nil
	j.buf = nil
	j.replaying = false
	j.replayIdx = 0
	return nil
}

func (j *MergeJoin) Close() error {
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}
