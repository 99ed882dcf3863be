package querytree

import (
	"fmt"
	"strings"

	"github.com/roach88/qtree/internal/value"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Node     string   `json:"node"`
	Message  string   `json:"message"`
	Pos      string   `json:"pos,omitempty"`
}

func (i Issue) String() string {
	if i.Pos != "" {
		return fmt.Sprintf("%s: %s [%s] %s: %s", i.Pos, i.Severity, i.Code, i.Node, i.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", i.Severity, i.Code, i.Node, i.Message)
}

// ValidationResult contains the findings for one definition.
type ValidationResult struct {
	Tree   string  `json:"tree"`
	Issues []Issue `json:"issues,omitempty"`
}

// Valid reports whether no error-severity issue was found.
// Warnings do not make a definition invalid.
func (r ValidationResult) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Validate checks a definition against the structural rules that the
// compiler relies on, without needing an entity type or parameters.
//
// Rules:
//  1. The root is a Combinator
//  2. Every Combinator has at least one child
//  3. Every leaf names a parameter and a data type
//  4. Data types are known to types (skipped when types is nil)
//  5. Ordering operators are only used on ordered data types, contains only on strings
//  6. Range parameter names do not carry a range suffix themselves
//  7. Opaque leaves are reported as warnings, or errors with RejectOpaqueLeaves
//  8. A parameter read with two different data types is reported as a warning
//
// Validate returns all findings (does not fail-fast) and has no side effects.
func Validate(def *Definition, types *value.Registry, opts ...ValidateOption) ValidationResult {
	v := &validator{types: types, paramTypes: make(map[string]string), opaque: SeverityWarning}
	for _, opt := range opts {
		opt(v)
	}

	if def.Root == nil {
		v.add(SeverityError, CodeStructure, RootPath, "", "definition has no root node")
	} else {
		if _, ok := def.Root.(*Combinator); !ok {
			v.add(SeverityError, CodeRootKind, RootPath, def.Root.Position(), "root must be a combinator")
		}
		Walk(def.Root, v.visit)
	}

	return ValidationResult{Tree: def.Name, Issues: v.issues}
}

// ValidateOption configures Validate.
type ValidateOption func(*validator)

// RejectOpaqueLeaves reports opaque leaves as errors, for callers whose
// compiler refuses them.
func RejectOpaqueLeaves() ValidateOption {
	return func(v *validator) { v.opaque = SeverityError }
}

// validator accumulates issues during traversal.
type validator struct {
	types      *value.Registry
	paramTypes map[string]string
	opaque     Severity
	issues     []Issue
}

func (v *validator) add(sev Severity, code, node, pos, format string, args ...any) {
	v.issues = append(v.issues, Issue{
		Severity: sev,
		Code:     code,
		Node:     node,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (v *validator) visit(path string, n Node) bool {
	switch node := n.(type) {
	case *Combinator:
		if len(node.Nodes) == 0 {
			v.add(SeverityError, CodeStructure, path, node.Pos, "combinator must have at least one child")
		}
	case *SingleCondition:
		v.leaf(path, node.Pos, node.Property, node.Param, node.DataType, node.Op)
	case *MultiCondition:
		v.leaf(path, node.Pos, node.Property, node.Param, node.DataType, node.Op)
	case *RangeCondition:
		v.leaf(path, node.Pos, node.Property, node.Param, node.DataType, Ge)
		if strings.HasSuffix(node.Param, LowerSuffix) || strings.HasSuffix(node.Param, UpperSuffix) {
			v.add(SeverityError, CodeStructure, path, node.Pos,
				"range parameter %q must be the base name without #0/#1", node.Param)
		}
	case *OpaqueLeaf:
		v.add(v.opaque, CodeOpaqueLeaf, path, node.Pos,
			"node has no recognized shape (fields: %s)", strings.Join(node.Fields, ", "))
	case nil:
		v.add(SeverityError, CodeStructure, path, "", "nil node")
	}
	return true
}

func (v *validator) leaf(path, pos string, prop Property, param, dataType string, op Operator) {
	if prop.Name == "" {
		v.add(SeverityError, CodeStructure, path, pos, "leaf has no property")
	}
	if param == "" {
		v.add(SeverityError, CodeStructure, path, pos, "leaf has no parameter name")
	}
	if dataType == "" {
		v.add(SeverityError, CodeStructure, path, pos, "leaf has no data type")
		return
	}

	if prev, ok := v.paramTypes[param]; ok && !strings.EqualFold(prev, dataType) {
		v.add(SeverityWarning, CodeDataType, path, pos,
			"parameter %q is read as %s here and as %s elsewhere", param, dataType, prev)
	} else if !ok {
		v.paramTypes[param] = dataType
	}

	if v.types == nil {
		return
	}
	dt, ok := v.types.Lookup(dataType)
	if !ok {
		v.add(SeverityError, CodeDataType, path, pos, "unknown data type %q", dataType)
		return
	}
	if op.Ordering() && !dt.Kind.Ordered() {
		v.add(SeverityError, CodeOperator, path, pos, "operator %s needs an ordered type, got %s", op, dataType)
	}
	if op == Contains && dt.Kind != value.KindString {
		v.add(SeverityError, CodeOperator, path, pos, "operator contains needs a string type, got %s", dataType)
	}
}
