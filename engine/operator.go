// Package engine implements the pull-based ("volcano") query operators and
// the pipeline driver that links and drains them. Every operator exposes
// the same small iterator contract, carried over from the teacher's
// engine.Scan interface: Next/HasNext/Reset/Close, with io.EOF as the
// end-of-input sentinel instead of a fabricated error.
package engine

import (
	"io"

	"github.com/brayanjuls/csprimer-db/record"
)

// Operator is one node of an operator pipeline. Next returns io.EOF when it
// produces no record on this call; this is a signal, not a failure, and
// callers must consult HasNext to decide whether to retry (see Run).
type Operator interface {
	Next() (record.Record, error)
	HasNext() bool
	Reset() error
	Close() error
}

// ChildSetter is implemented by single-child operators so that Q can link a
// pipeline by assigning children after construction, matching the literal
// Q(op1, ..., opK) behavior specified for the pipeline driver.
type ChildSetter interface {
	SetChild(Operator)
}

// Q links ops into a pipeline, parent to child, and returns the root
// (ops[0]). Every operator but the last must implement ChildSetter.
func Q(ops ...Operator) Operator {
	for i := 0; i < len(ops)-1; i++ {
		setter, ok := ops[i].(ChildSetter)
		if !ok {
			panic("engine: operator does not accept a child")
		}
		setter.SetChild(ops[i+1])
	}
	return ops[0]
}

// Run drains root to completion, calling visit for every produced record.
// When Next returns io.EOF but HasNext is still true, Run retries rather
// than terminating: this is what lets Selection reject a record on one
// call while still giving the driver a reason to pull again.
func Run(root Operator, visit func(record.Record) error) error {
	for {
		rec, err := root.Next()
		if err != nil {
			if err != io.EOF {
				return err
			}
			if root.HasNext() {
				continue
			}
			return nil
		}
		if err := visit(rec); err != nil {
			return err
		}
	}
}

// Drain runs root to completion and collects every produced record, for
// tests and small one-shot queries.
func Drain(root Operator) ([]record.Record, error) {
	var out []record.Record
	err := Run(root, func(rec record.Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

// drain pulls every record out of op using the same retry contract as Run,
// for operators that must fully materialize their child (Sort, Aggregation,
// the hash-join build side).
func drain(op Operator) ([]record.Record, error) {
	return Drain(op)
}

func concat(left, right record.Record) record.Record {
	out := make(record.Record, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}
