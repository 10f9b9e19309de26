package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	e := New(nil)

	tests := []struct {
		name string
		text string
		want Vector
	}{
		{
			name: "empty",
			text: "",
			want: Vector{},
		},
		{
			name: "all signals",
			text: "pragma solidity ^0.4.24;\nimport \"./A.sol\";\n// state machine\nfunction f() { require(x); y = a + b * c; }\n",
			want: Vector{
				UsesLibraries:      true,
				UsesDesignPatterns: true,
				HasPragma:          true,
				HasAccessControl:   true,
				ArithmeticOpCount:  5,
			},
		},
		{
			name: "comment slashes count as operators",
			text: "// a-b\n",
			want: Vector{ArithmeticOpCount: 3},
		},
		{
			name: "delegatecall counts as delegate",
			text: "target.delegatecall(data);",
			want: Vector{UsesDesignPatterns: true},
		},
		{
			name: "requireOwner counts as require",
			text: "requireOwner();",
			want: Vector{HasAccessControl: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}
