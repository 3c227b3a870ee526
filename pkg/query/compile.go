package query

import (
	"github.com/cuemby/protobase/pkg/index"
	"github.com/cuemby/protobase/pkg/pberr"
)

// Compile turns a filter written in the list-form grammar (spec.md §4.8
// "Compiler grammar") into an Expression tree. The grammar is JSON- and
// msgpack-friendly: every node is a []any whose first element
// (attribute name, or one of "&"/"|"/"!") dispatches the rest.
//
//	[attr, op, value]                          -> Term
//	[attr, "?T"|"?!T"|"?N"|"?!N"]               -> UnaryTerm
//	[attr, "between[]"|"between()"|..., lo, hi] -> Between Term
//	[attr, "near[]", vec, threshold]            -> Near Term (k optional, 5th element)
//	["&", t1, t2, ...]                          -> AndExpression
//	["|", t1, t2, ...]                          -> OrExpression
//	["!", t]                                    -> NotExpression
func Compile(node any) (Expression, error) {
	list, ok := node.([]any)
	if !ok {
		return nil, pberr.Validationf("query: filter node must be a list, got %T", node)
	}
	if len(list) == 0 {
		return nil, pberr.Validationf("query: empty filter node")
	}

	head, isString := list[0].(string)
	if !isString {
		return nil, pberr.Validationf("query: filter node's first element must be a string, got %T", list[0])
	}

	switch head {
	case "&":
		return compileConnective(list[1:], func(terms []Expression) Expression { return &AndExpression{Terms: terms} })
	case "|":
		return compileConnective(list[1:], func(terms []Expression) Expression { return &OrExpression{Terms: terms} })
	case "!":
		if len(list) != 2 {
			return nil, pberr.Validationf("query: '!' node must have exactly one operand")
		}
		inner, err := Compile(list[1])
		if err != nil {
			return nil, err
		}
		return &NotExpression{Expr: inner}, nil
	default:
		return compileTerm(head, list[1:])
	}
}

func compileConnective(operands []any, build func([]Expression) Expression) (Expression, error) {
	terms := make([]Expression, 0, len(operands))
	for _, operand := range operands {
		term, err := Compile(operand)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return build(terms), nil
}

func compileTerm(attribute string, rest []any) (Expression, error) {
	if len(rest) == 0 {
		return nil, pberr.Validationf("query: term for %q has no operator", attribute)
	}

	opToken, isString := rest[0].(string)
	if !isString {
		return nil, pberr.Validationf("query: term for %q has a non-string operator %v", attribute, rest[0])
	}

	switch opToken {
	case "?T":
		return &UnaryTerm{Attribute: attribute, Op: IsTrue}, nil
	case "?!T":
		return &UnaryTerm{Attribute: attribute, Op: NotTrue}, nil
	case "?N":
		return &UnaryTerm{Attribute: attribute, Op: IsNone}, nil
	case "?!N":
		return &UnaryTerm{Attribute: attribute, Op: NotNone}, nil
	case "between[]", "between()", "between[)", "between(]":
		if len(rest) != 3 {
			return nil, pberr.Validationf("query: %q between-term needs exactly [lo, hi]", attribute)
		}
		loInclusive := opToken[7] == '['
		hiInclusive := opToken[8] == ']'
		return &Term{Attribute: attribute, Op: Between, Lo: rest[1], Hi: rest[2], LoInclusive: loInclusive, HiInclusive: hiInclusive}, nil
	case "near[]":
		if len(rest) < 3 {
			return nil, pberr.Validationf("query: %q near-term needs [query_vector, threshold]", attribute)
		}
		vec, err := compileVector(rest[1])
		if err != nil {
			return nil, err
		}
		threshold, ok := toFloat(rest[2])
		if !ok {
			return nil, pberr.Validationf("query: %q near-term's threshold must be numeric", attribute)
		}
		term := &Term{Attribute: attribute, Op: Near, QueryVector: vec, Threshold: threshold, Metric: index.MetricCosine}
		if len(rest) >= 4 {
			if k, ok := toFloat(rest[3]); ok {
				term.K = int(k)
			}
		}
		return term, nil
	default:
		op, err := operationFromToken(opToken)
		if err != nil {
			return nil, err
		}
		if len(rest) != 2 {
			return nil, pberr.Validationf("query: %q term needs exactly one value", attribute)
		}
		value := rest[1]
		if op == In {
			items, ok := value.([]any)
			if !ok {
				return nil, pberr.Validationf("query: %q 'in' term's value must be a list", attribute)
			}
			return &Term{Attribute: attribute, Op: In, Value: items}, nil
		}
		return &Term{Attribute: attribute, Op: op, Value: value}, nil
	}
}

func operationFromToken(token string) (Operation, error) {
	switch token {
	case "=", "==":
		return Equal, nil
	case "!=", "<>":
		return NotEqual, nil
	case ">":
		return Greater, nil
	case ">=":
		return GreaterOrEqual, nil
	case "<":
		return Lower, nil
	case "<=":
		return LowerOrEqual, nil
	case "contains":
		return Contains, nil
	case "in":
		return In, nil
	default:
		return 0, pberr.Validationf("query: unknown term operator %q", token)
	}
}

func compileVector(raw any) (index.Vector, error) {
	switch v := raw.(type) {
	case index.Vector:
		return v, nil
	case []float64:
		return index.NewVector(v, false)
	case []any:
		values := make([]float64, len(v))
		for i, item := range v {
			f, ok := toFloat(item)
			if !ok {
				return index.Vector{}, pberr.Validationf("query: near-term query vector has a non-numeric element %v", item)
			}
			values[i] = f
		}
		return index.NewVector(values, false)
	default:
		return index.Vector{}, pberr.Validationf("query: near-term query vector must be a list of numbers, got %T", raw)
	}
}
