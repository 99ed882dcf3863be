package querytree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewConfigError(CodeRootKind, "root must be a combinator").At("People", RootPath, "trees.cue:3:2")

	assert.Equal(t,
		"trees.cue:3:2: CONFIG[root_kind]: root must be a combinator (tree=People, node=root)",
		err.Error())
}

func TestError_MessageWithCause(t *testing.T) {
	cause := errors.New(`invalid int "x"`)
	err := NewBindingError("age", "x", "int", cause).At("People", "root/nodes[1]", "")

	assert.Equal(t,
		`BINDING: cannot bind "x" as int: invalid int "x" (tree=People, node=root/nodes[1], param=age)`,
		err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestError_AtKeepsInnerContext(t *testing.T) {
	err := NewConfigError(CodeOperator, "bad").At("", "root/nodes[0]", "")
	err.At("People", RootPath, "x.cue:1:1")

	assert.Equal(t, "People", err.Tree)
	assert.Equal(t, "root/nodes[0]", err.Node, "innermost node path wins")
	assert.Equal(t, "x.cue:1:1", err.Pos)
}

func TestError_KindHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"config", NewConfigError(CodeStructure, "x"), IsConfigError},
		{"not found", NewNotFoundError("missing"), IsNotFound},
		{"binding", NewBindingError("p", "v", "int", nil), IsBindingError},
		{"resolution", NewResolutionError(Property{Name: "Nope"}, "Person", nil), IsResolutionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))

			// Wrapped errors are still detected
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}

	assert.False(t, IsConfigError(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Ghost")
	assert.Equal(t, `NOT_FOUND: query tree "Ghost" not found (tree=Ghost)`, err.Error())
}
