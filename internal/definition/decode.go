package definition

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qtree/internal/querytree"
)

// Document field names.
const (
	fieldRoot       = "querytree"
	fieldOp         = "op"
	fieldNodes      = "nodes"
	fieldParam      = "param"
	fieldMultiParam = "multiParam"
	fieldRangeParam = "rangeParam"
	fieldName       = "name"
	fieldProperty   = "property"
	fieldOwner      = "owner"
	fieldType       = "type"
)

var leafFields = []string{fieldParam, fieldMultiParam, fieldRangeParam}

// decodeTrees extracts every definition under the top-level querytree field.
// A document without the field yields no definitions.
func decodeTrees(v cue.Value, source string) ([]*querytree.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	treesVal := v.LookupPath(cue.ParsePath(fieldRoot))
	if !treesVal.Exists() {
		return nil, nil
	}

	iter, err := treesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []*querytree.Definition
	for iter.Next() {
		name := iter.Label()
		root, err := decodeNode(iter.Value(), querytree.RootPath)
		if err != nil {
			return nil, withTree(err, name)
		}
		defs = append(defs, &querytree.Definition{
			Name:   name,
			Root:   root,
			Source: source,
		})
	}

	return defs, nil
}

// decodeNode recursively decodes one node.
func decodeNode(v cue.Value, path string) (querytree.Node, error) {
	pos := formatPos(v.Pos())

	if v.IncompleteKind() != cue.StructKind {
		return nil, structureError(path, pos, "node must be a struct, got %v", v.IncompleteKind())
	}

	labels, err := fieldLabels(v)
	if err != nil {
		return nil, err
	}

	var leafKind string
	for _, f := range leafFields {
		if !labels[f] {
			continue
		}
		if leafKind != "" {
			return nil, structureError(path, pos, "node has both %q and %q", leafKind, f)
		}
		leafKind = f
	}

	switch {
	case labels[fieldNodes] && leafKind != "":
		return nil, structureError(path, pos, "node has both %q and %q", fieldNodes, leafKind)
	case labels[fieldNodes]:
		return decodeCombinator(v, path, pos)
	case leafKind != "":
		return decodeLeaf(v, leafKind, path, pos)
	default:
		fields := make([]string, 0, len(labels))
		for l := range labels {
			fields = append(fields, l)
		}
		sort.Strings(fields)
		return &querytree.OpaqueLeaf{Fields: fields, Pos: pos}, nil
	}
}

func decodeCombinator(v cue.Value, path, pos string) (querytree.Node, error) {
	opStr, err := requiredString(v, fieldOp, path, pos)
	if err != nil {
		return nil, err
	}
	op, err := querytree.ParseLogic(opStr)
	if err != nil {
		return nil, &querytree.Error{
			Kind: querytree.KindConfig, Code: querytree.CodeOperator,
			Message: err.Error(), Node: path, Pos: pos,
		}
	}

	list, err := v.LookupPath(cue.ParsePath(fieldNodes)).List()
	if err != nil {
		return nil, structureError(path, pos, "%q must be a list", fieldNodes)
	}

	comb := &querytree.Combinator{Op: op, Pos: pos}
	for i := 0; list.Next(); i++ {
		child, err := decodeNode(list.Value(), querytree.ChildPath(path, i))
		if err != nil {
			return nil, err
		}
		comb.Nodes = append(comb.Nodes, child)
	}

	if len(comb.Nodes) == 0 {
		return nil, structureError(path, pos, "combinator must have at least one child")
	}

	return comb, nil
}

func decodeLeaf(v cue.Value, kind, path, pos string) (querytree.Node, error) {
	body := v.LookupPath(cue.ParsePath(kind))
	if body.IncompleteKind() != cue.StructKind {
		return nil, structureError(path, pos, "%q must be a struct", kind)
	}

	param, err := requiredString(body, fieldName, path, pos)
	if err != nil {
		return nil, err
	}
	dataType, err := requiredString(body, fieldType, path, pos)
	if err != nil {
		return nil, err
	}
	property, err := optionalString(body, fieldProperty, param)
	if err != nil {
		return nil, err
	}
	owner, err := optionalString(body, fieldOwner, "")
	if err != nil {
		return nil, err
	}
	prop := querytree.Property{Owner: owner, Name: property}

	// Range operators are fixed (>= lower, <= upper); any op is ignored.
	if kind == fieldRangeParam {
		return &querytree.RangeCondition{
			Property: prop,
			DataType: dataType,
			Param:    param,
			Pos:      pos,
		}, nil
	}

	opStr, err := requiredString(v, fieldOp, path, pos)
	if err != nil {
		return nil, err
	}
	op, err := querytree.ParseOperator(opStr)
	if err != nil {
		return nil, &querytree.Error{
			Kind: querytree.KindConfig, Code: querytree.CodeOperator,
			Message: err.Error(), Node: path, Pos: pos, Param: param,
		}
	}

	if kind == fieldMultiParam {
		return &querytree.MultiCondition{
			Property: prop, DataType: dataType, Op: op, Param: param, Pos: pos,
		}, nil
	}
	return &querytree.SingleCondition{
		Property: prop, DataType: dataType, Op: op, Param: param, Pos: pos,
	}, nil
}

// fieldLabels returns the set of regular field labels of a struct value.
func fieldLabels(v cue.Value) (map[string]bool, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	labels := make(map[string]bool)
	for iter.Next() {
		labels[iter.Label()] = true
	}
	return labels, nil
}

func requiredString(v cue.Value, field, path, pos string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", structureError(path, pos, "%q is required", field)
	}
	s, err := fv.String()
	if err != nil {
		return "", structureError(path, formatPos(fv.Pos()), "%q must be a string", field)
	}
	if s == "" {
		return "", structureError(path, formatPos(fv.Pos()), "%q must not be empty", field)
	}
	return s, nil
}

func optionalString(v cue.Value, field, def string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

func structureError(path, pos, format string, args ...any) *querytree.Error {
	return &querytree.Error{
		Kind:    querytree.KindConfig,
		Code:    querytree.CodeStructure,
		Message: fmt.Sprintf(format, args...),
		Node:    path,
		Pos:     pos,
	}
}

func withTree(err error, tree string) error {
	if qe, ok := err.(*querytree.Error); ok {
		qe.At(tree, "", "")
		return qe
	}
	return fmt.Errorf("query tree %q: %w", tree, err)
}

// formatPos renders a CUE position as "file:line:col", or "" if invalid.
func formatPos(pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column())
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &querytree.Error{Kind: querytree.KindConfig, Code: querytree.CodeDocument, Message: err.Error()}
	}

	// Report the first error with position info
	first := errs[0]
	qe := &querytree.Error{
		Kind:    querytree.KindConfig,
		Code:    querytree.CodeDocument,
		Message: first.Error(),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		qe.Pos = formatPos(positions[0])
	}
	return qe
}
