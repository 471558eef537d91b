package route

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/webfunc/internal/util"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: "/"},
		{name: "root", input: "/", expected: "/"},
		{name: "missing leading slash", input: "users", expected: "/users/"},
		{name: "missing trailing slash", input: "/users", expected: "/users/"},
		{name: "repeated edge slashes", input: "///users/1///", expected: "/users/1/"},
		{name: "query dropped", input: "/users?x=1", expected: "/users/"},
		{name: "whitespace", input: "  /users/  ", expected: "/users/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"users/{id}", "/users/{id}/", "//a//b//", "/", "x"} {
		once := Normalize(p)
		assert.Equal(t, once, Normalize(once), p)
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		pattern      string
		expectedVars []string
		expectedExpr string
		literal      bool
	}{
		{
			name:         "literal",
			pattern:      "/health",
			expectedVars: []string{},
			expectedExpr: `^/health/$`,
			literal:      true,
		},
		{
			name:         "root",
			pattern:      "/",
			expectedVars: []string{},
			expectedExpr: `^/$`,
			literal:      true,
		},
		{
			name:         "brace variable",
			pattern:      "/users/{id}",
			expectedVars: []string{"id"},
			expectedExpr: `^/users/(.+?)/`,
		},
		{
			name:         "colon variable",
			pattern:      "/users/:id/account/:acctId",
			expectedVars: []string{"id", "acctId"},
			expectedExpr: `^/users/(.+?)/account/(.+?)/`,
		},
		{
			name:         "mixed tokens",
			pattern:      "/a/{x}/b/:y",
			expectedVars: []string{"x", "y"},
			expectedExpr: `^/a/(.+?)/b/(.+?)/`,
		},
		{
			name:         "literal is quoted and lower-cased",
			pattern:      "/Files.v1/{name}",
			expectedVars: []string{"name"},
			expectedExpr: `^/files\.v1/(.+?)/`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedVars, p.Vars())
			assert.Equal(t, tt.expectedExpr, p.String())
			assert.Equal(t, tt.literal, p.Literal())
			assert.Equal(t, Normalize(tt.pattern), p.Route())
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		reason  string
	}{
		{name: "empty", pattern: "", reason: "empty pattern"},
		{name: "blank", pattern: "   ", reason: "empty pattern"},
		{name: "unclosed brace", pattern: "/users/{id", reason: "unbalanced braces"},
		{name: "stray closing brace", pattern: "/users/id}", reason: "unbalanced braces"},
		{name: "nested brace", pattern: "/users/{{id}}", reason: "unbalanced braces"},
		{name: "brace across segments", pattern: "/users/{id/x}", reason: "unbalanced braces"},
		{name: "empty brace name", pattern: "/users/{}", reason: "empty variable name"},
		{name: "empty colon name", pattern: "/users/:/x", reason: "empty variable name"},
		{name: "duplicate name", pattern: "/a/{id}/b/:id", reason: "duplicate variable name 'id'"},
		{name: "invalid name", pattern: "/a/{my id}", reason: "invalid variable name 'my id'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Compile(tt.pattern)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, util.ErrInvalidPattern))

			var patternErr *util.InvalidPatternError
			require.ErrorAs(t, err, &patternErr)
			assert.Equal(t, tt.pattern, patternErr.Pattern)
			assert.Equal(t, tt.reason, patternErr.Reason)
		})
	}
}

func TestCompile_NormalizedFormsAreIdentical(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"users/{id}", "/users/{id}", "users/{id}/", "//users/{id}//"} {
		a, err := Compile(p)
		require.NoError(t, err)
		b, err := Compile(Normalize(p))
		require.NoError(t, err)

		assert.Equal(t, a, b, p)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	t.Parallel()

	a := MustCompile("/users/{id}/account/:acctId")
	b := MustCompile("/users/{id}/account/:acctId")
	assert.Equal(t, a, b)
	assert.Same(t, a.regex, b.regex)
}

func TestMustCompile_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustCompile("/{") })
}

func TestRegexCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := newRegexCache(2)

	a, err := c.compile("^/a/$")
	require.NoError(t, err)
	_, err = c.compile("^/b/$")
	require.NoError(t, err)

	// Touch a so b becomes the eviction candidate.
	again, err := c.compile("^/a/$")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = c.compile("^/c/$")
	require.NoError(t, err)

	assert.Equal(t, 2, c.len())
	_, hasA := c.entries["^/a/$"]
	_, hasB := c.entries["^/b/$"]
	assert.True(t, hasA)
	assert.False(t, hasB)
}

func TestRegexCache_InvalidExpression(t *testing.T) {
	t.Parallel()

	c := newRegexCache(2)
	_, err := c.compile("(")
	assert.Error(t, err)
	assert.Equal(t, 0, c.len())
}
