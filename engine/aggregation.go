package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/brayanjuls/csprimer-db/record"
)

// ErrUnknownAgg is returned at the first Next call of an Aggregation built
// with an unsupported op.
var ErrUnknownAgg = errors.New("engine: unknown aggregation op")

// Aggregation groups child records by groupFn and reduces valueFn over each
// group with op (sum, count, or avg, case-insensitive). It eagerly drains
// the child on the first Next call and emits one (group, value) record per
// group, in first-appearance order.
type Aggregation struct {
	child   Operator
	groupFn func(record.Record) any
	valueFn func(record.Record) any
	op      string

	materialized bool
	result       []record.Record
	idx          int
	err          error
}

// NewAggregation returns an Aggregation grouping by groupFn and reducing
// valueFn with op.
func NewAggregation(groupFn, valueFn func(record.Record) any, op string) *Aggregation {
	return &Aggregation{groupFn: groupFn, valueFn: valueFn, op: op}
}

func (a *Aggregation) SetChild(child Operator) { a.child = child }

func (a *Aggregation) HasNext() bool {
	if !a.materialized {
		return a.child.HasNext()
	}
	return a.idx < len(a.result)
}

func (a *Aggregation) Next() (record.Record, error) {
	if !a.materialized {
		if err := a.materialize(); err != nil {
			a.err = err
		}
		a.materialized = true
	}
	if a.err != nil {
		return nil, a.err
	}
	if a.idx >= len(a.result) {
		return nil, io.EOF
	}
	rec := a.result[a.idx]
	a.idx++
	return rec, nil
}

func (a *Aggregation) materialize() error {
	op := strings.ToLower(a.op)
	if op != "sum" && op != "count" && op != "avg" {
		return fmt.Errorf("%w: %s", ErrUnknownAgg, a.op)
	}

	recs, err := drain(a.child)
	if err != nil {
		return err
	}

	var order []any
	seen := make(map[any]bool)
	sum := make(map[any]float64)
	count := make(map[any]int)

	for _, rec := range recs {
		g := a.groupFn(rec)
		if !seen[g] {
			seen[g] = true
			order = append(order, g)
		}

		v := a.valueFn(rec)
		switch op {
		case "sum":
			fv, err := toFloat64(v)
			if err != nil {
				return err
			}
			sum[g] += fv
		case "count":
			if v != nil {
				count[g]++
			}
		case "avg":
			if v != nil {
				fv, err := toFloat64(v)
				if err != nil {
					return err
				}
				sum[g] += fv
				count[g]++
			}
		}
	}

	a.result = make([]record.Record, 0, len(order))
	for _, g := range order {
		switch op {
		case "sum":
			a.result = append(a.result, record.Record{g, sum[g]})
		case "count":
			a.result = append(a.result, record.Record{g, count[g]})
		case "avg":
			denom := count[g]
			if denom == 0 {
				denom = 1
			}
			a.result = append(a.result, record.Record{g, round2(sum[g] / float64(denom))})
		}
	}
	return nil
}

func (a *Aggregation) Reset() error {
	a.materialized = false
	a.result = nil
	a.idx = 0
	a.err = nil
	return a.child.Reset()
}

func (a *Aggregation) Close() error { return a.child.Close() }

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("%w: aggregation value type %T", ErrUncomparable, v)
	}
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(f float64) float64 {
	shifted := f * 100
	if shifted >= 0 {
		shifted = math.Floor(shifted + 0.5)
	} else {
		shifted = math.Ceil(shifted - 0.5)
	}
	return shifted / 100
}
