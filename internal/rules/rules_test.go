package rules

// Test Plan for Rules:
// - IsDeclaration matches trimmed "function" prefix only as a whole token
// - IsDeclaration matches the malformed "} function foo() {" transition
// - IsBodilessDeclaration detects interface functions ending in ";"
// - Wrapper detects contract/library/interface/abstract contract and names them
// - ExtractSignature returns "function name(args)" or "" without an argument list
// - WithDeclarationKeywords replaces prefixes without mutating the original

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDeclaration(t *testing.T) {
	t.Parallel()

	r := Default()
	tests := []struct {
		line string
		want bool
	}{
		{"    function transfer(address to) public {\n", true},
		{"function() payable {", true},
		{"\tfunction f()", true},
		{"  } function bar() {", true},
		{"// function commented() {}", false},
		{"functionality = 1;", false},
		{"uint public function_count;", false},
		{"contract C {", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsDeclaration(tt.line))
		})
	}
}

func TestIsMalformedTransition(t *testing.T) {
	t.Parallel()

	r := Default()
	assert.True(t, r.IsMalformedTransition("    } function log() {"))
	assert.True(t, r.IsMalformedTransition("}function log() {"))
	assert.False(t, r.IsMalformedTransition("    }"))
	assert.False(t, r.IsMalformedTransition("    } else {"))
}

func TestIsBodilessDeclaration(t *testing.T) {
	t.Parallel()

	r := Default()
	assert.True(t, r.IsBodilessDeclaration("    function totalSupply() external view returns (uint256);"))
	assert.False(t, r.IsBodilessDeclaration("    function totalSupply() external view returns (uint256) {"))
	assert.False(t, r.IsBodilessDeclaration("    function totalSupply()"))
	assert.False(t, r.IsBodilessDeclaration("    uint x;"))
}

func TestWrapper(t *testing.T) {
	t.Parallel()

	r := Default()
	tests := []struct {
		line   string
		name   string
		isWrap bool
	}{
		{"contract Token is ERC20 {", "Token", true},
		{"  library SafeMath {", "SafeMath", true},
		{"interface IERC20 {", "IERC20", true},
		{"abstract contract Base {", "Base", true},
		{"contract", "", true},
		{"contractor = msg.sender;", "", false},
		{"function f() {", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			name, ok := r.Wrapper(tt.line)
			assert.Equal(t, tt.isWrap, ok)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestExtractSignature(t *testing.T) {
	t.Parallel()

	r := Default()
	assert.Equal(t, "function transfer(address to, uint256 amount)",
		r.ExtractSignature("    function transfer(address to, uint256 amount) public returns (bool) {"))
	assert.Equal(t, "function ()", r.ExtractSignature("function () payable {"))
	assert.Equal(t, "function bar()", r.ExtractSignature("  } function bar() {"))
	assert.Empty(t, r.ExtractSignature("    function withdraw("))
	assert.Empty(t, r.ExtractSignature("    uint x = 1;"))
}

func TestWithDeclarationKeywords(t *testing.T) {
	t.Parallel()

	base := Default()
	extended := base.WithDeclarationKeywords([]string{"function", "constructor", "modifier"})

	assert.True(t, extended.IsDeclaration("    constructor() public {"))
	assert.True(t, extended.IsDeclaration("    modifier onlyOwner {"))
	assert.False(t, base.IsDeclaration("    constructor() public {"))
	assert.Equal(t, []string{"function"}, base.DeclarationPrefixes)

	same := base.WithDeclarationKeywords(nil)
	assert.Equal(t, base.DeclarationPrefixes, same.DeclarationPrefixes)
}
