package query

import (
	"fmt"
	"strings"

	"github.com/cuemby/protobase/pkg/index"
	"github.com/cuemby/protobase/pkg/pberr"
)

// Operation is a binary Term's comparison. Grounded on spec.md §4.8's
// expression tree.
type Operation int

const (
	Equal Operation = iota
	NotEqual
	Greater
	GreaterOrEqual
	Lower
	LowerOrEqual
	Contains
	In
	Between
	Near
)

// UnaryOp is a unary Term's test, applied to a single attribute with no
// comparison value.
type UnaryOp int

const (
	IsTrue UnaryOp = iota
	NotTrue
	IsNone
	NotNone
)

// Expression is a boolean predicate evaluable against a Record.
// Grounded on common.py's abstract expression hierarchy (AndExpression,
// OrExpression, Term, and their siblings in queries.py's intended
// scope).
type Expression interface {
	Evaluate(rec Record) (bool, error)

	// cost ranks how expensive evaluating this expression is, cheapest
	// first, used by the AND-reordering optimizer step.
	cost() int
}

// Term is a binary comparison between a record's attribute and a value,
// or (for Between/Near) a small set of bound/query parameters.
type Term struct {
	Attribute string
	Op        Operation

	Value any // Equal, NotEqual, Greater*, Lower*, Contains, In (Value is a slice)

	Lo, Hi               any  // Between
	LoInclusive, HiInclusive bool // Between

	QueryVector index.Vector // Near
	Threshold   float64      // Near
	K           int          // Near, informational only for the boolean form
	Metric      index.Metric // Near
}

func (t *Term) Evaluate(rec Record) (bool, error) {
	v, ok := rec.Get(t.Attribute)

	switch t.Op {
	case Equal:
		return ok && compareEqual(v, t.Value), nil
	case NotEqual:
		return !ok || !compareEqual(v, t.Value), nil
	case Greater, GreaterOrEqual, Lower, LowerOrEqual:
		if !ok {
			return false, nil
		}
		cmp, comparable := compareOrdered(v, t.Value)
		if !comparable {
			return false, nil
		}
		switch t.Op {
		case Greater:
			return cmp > 0, nil
		case GreaterOrEqual:
			return cmp >= 0, nil
		case Lower:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case Contains:
		if !ok {
			return false, nil
		}
		return containsValue(v, t.Value), nil
	case In:
		if !ok {
			return false, nil
		}
		items, isSlice := t.Value.([]any)
		if !isSlice {
			return false, pberr.Validationf("query: In term's value must be a list, got %T", t.Value)
		}
		for _, item := range items {
			if compareEqual(v, item) {
				return true, nil
			}
		}
		return false, nil
	case Between:
		if !ok {
			return false, nil
		}
		return evaluateBetween(v, t.Lo, t.Hi, t.LoInclusive, t.HiInclusive), nil
	case Near:
		if !ok {
			return false, nil
		}
		vec, isVec := toVector(v)
		if !isVec {
			return false, nil
		}
		score, err := vec.Similarity(t.QueryVector, t.Metric)
		if err != nil {
			return false, err
		}
		return score >= t.Threshold, nil
	default:
		return false, pberr.Validationf("query: unknown operation %d", t.Op)
	}
}

func (t *Term) cost() int {
	switch t.Op {
	case Equal, NotEqual:
		return 0
	case Greater, GreaterOrEqual, Lower, LowerOrEqual, Between, In:
		return 1
	default: // Contains, Near
		return 2
	}
}

// UnaryTerm is a single-attribute boolean or presence test.
type UnaryTerm struct {
	Attribute string
	Op        UnaryOp
}

func (t *UnaryTerm) Evaluate(rec Record) (bool, error) {
	v, ok := rec.Get(t.Attribute)
	switch t.Op {
	case IsTrue:
		b, _ := v.(bool)
		return ok && b, nil
	case NotTrue:
		b, _ := v.(bool)
		return !ok || !b, nil
	case IsNone:
		return !ok || v == nil, nil
	case NotNone:
		return ok && v != nil, nil
	default:
		return false, pberr.Validationf("query: unknown unary operation %d", t.Op)
	}
}

func (t *UnaryTerm) cost() int { return 0 }

// TrueTerm always evaluates true; FalseTerm always evaluates false.
// Used as compiler constants and as optimizer neutral elements.
type TrueTerm struct{}

func (TrueTerm) Evaluate(Record) (bool, error) { return true, nil }
func (TrueTerm) cost() int                     { return 0 }

type FalseTerm struct{}

func (FalseTerm) Evaluate(Record) (bool, error) { return false, nil }
func (FalseTerm) cost() int                      { return 0 }

// AndExpression is true iff every term is true.
type AndExpression struct {
	Terms []Expression
}

func (e *AndExpression) Evaluate(rec Record) (bool, error) {
	for _, term := range e.Terms {
		ok, err := term.Evaluate(rec)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *AndExpression) cost() int {
	total := 0
	for _, term := range e.Terms {
		total += term.cost()
	}
	return total
}

// OrExpression is true iff at least one term is true.
type OrExpression struct {
	Terms []Expression
}

func (e *OrExpression) Evaluate(rec Record) (bool, error) {
	for _, term := range e.Terms {
		ok, err := term.Evaluate(rec)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (e *OrExpression) cost() int {
	total := 0
	for _, term := range e.Terms {
		total += term.cost()
	}
	return total
}

// NotExpression negates its inner expression.
type NotExpression struct {
	Expr Expression
}

func (e *NotExpression) Evaluate(rec Record) (bool, error) {
	ok, err := e.Expr.Evaluate(rec)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (e *NotExpression) cost() int { return e.Expr.cost() }

func compareEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareOrdered returns (-1|0|1, true) when a and b can be compared as
// numbers or strings, else (0, false).
func compareOrdered(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	sa, aIsStr := a.(string)
	sb, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func evaluateBetween(v, lo, hi any, loInclusive, hiInclusive bool) bool {
	if lo != nil {
		cmp, ok := compareOrdered(v, lo)
		if !ok {
			return false
		}
		if loInclusive {
			if cmp < 0 {
				return false
			}
		} else if cmp <= 0 {
			return false
		}
	}
	if hi != nil {
		cmp, ok := compareOrdered(v, hi)
		if !ok {
			return false
		}
		if hiInclusive {
			if cmp > 0 {
				return false
			}
		} else if cmp >= 0 {
			return false
		}
	}
	return true
}

func containsValue(container, needle any) bool {
	switch c := container.(type) {
	case string:
		s, ok := needle.(string)
		return ok && strings.Contains(c, s)
	case []any:
		for _, item := range c {
			if compareEqual(item, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toVector(v any) (index.Vector, bool) {
	switch val := v.(type) {
	case index.Vector:
		return val, true
	case []float64:
		vec, err := index.NewVector(val, false)
		if err != nil {
			return index.Vector{}, false
		}
		return vec, true
	default:
		return index.Vector{}, false
	}
}
