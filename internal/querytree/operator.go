package querytree

import (
	"fmt"
	"strings"
)

// Logic is a combinator operator.
type Logic int

const (
	And Logic = iota
	Or
)

func (l Logic) String() string {
	if l == Or {
		return "or"
	}
	return "and"
}

// Fold combines two child results.
func (l Logic) Fold(a, b bool) bool {
	if l == Or {
		return a || b
	}
	return a && b
}

var logicCodes = map[string]Logic{
	"and":     And,
	"&&":      And,
	"andalso": And,
	"or":      Or,
	"||":      Or,
	"orelse":  Or,
}

// ParseLogic parses a combinator operator code, case-insensitively.
func ParseLogic(code string) (Logic, error) {
	if l, ok := logicCodes[strings.ToLower(strings.TrimSpace(code))]; ok {
		return l, nil
	}
	return And, fmt.Errorf("unknown combinator operator %q", code)
}

// Operator is a relational operator applied as (property OP value).
//
// The set is closed; backends map each operator to a concrete comparison
// rather than dispatching dynamically.
type Operator int

const (
	Eq Operator = iota
	Ne
	Gt
	Ge
	Lt
	Le
	Contains
)

var operatorNames = [...]string{
	Eq:       "eq",
	Ne:       "ne",
	Gt:       "gt",
	Ge:       "ge",
	Lt:       "lt",
	Le:       "le",
	Contains: "contains",
}

func (o Operator) String() string {
	if o >= 0 && int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// Symbol returns the infix spelling of the operator. Contains has no infix
// SQL form and spells as "contains".
func (o Operator) Symbol() string {
	switch o {
	case Eq:
		return "="
	case Ne:
		return "<>"
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Contains:
		return "contains"
	default:
		return "?"
	}
}

// Ordering reports whether the operator needs an ordered data type.
func (o Operator) Ordering() bool {
	return o == Gt || o == Ge || o == Lt || o == Le
}

// Holds maps a three-way comparison result onto the operator.
// Contains is not expressible as an ordering and never holds here.
func (o Operator) Holds(cmp int) bool {
	switch o {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	default:
		return false
	}
}

var operatorCodes = map[string]Operator{
	"eq": Eq, "=": Eq, "==": Eq, "equal": Eq, "equals": Eq,
	"ne": Ne, "!=": Ne, "<>": Ne, "notequal": Ne,
	"gt": Gt, ">": Gt, "greaterthan": Gt,
	"ge": Ge, "gte": Ge, ">=": Ge, "greaterthanorequal": Ge,
	"lt": Lt, "<": Lt, "lessthan": Lt,
	"le": Le, "lte": Le, "<=": Le, "lessthanorequal": Le,
	"contains": Contains,
}

// ParseOperator parses a relational operator code, case-insensitively.
func ParseOperator(code string) (Operator, error) {
	if o, ok := operatorCodes[strings.ToLower(strings.TrimSpace(code))]; ok {
		return o, nil
	}
	return Eq, fmt.Errorf("unknown operator %q", code)
}
