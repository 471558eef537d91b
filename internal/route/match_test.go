package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		pattern         string
		path            string
		expectMatch     bool
		expectedMatched string
		expectedParams  map[string]string
	}{
		{
			name:            "literal exact",
			pattern:         "/health",
			path:            "/health",
			expectMatch:     true,
			expectedMatched: "/health/",
			expectedParams:  map[string]string{},
		},
		{
			name:        "literal does not match deeper path",
			pattern:     "/health",
			path:        "/health/live",
			expectMatch: false,
		},
		{
			name:        "literal does not match suffix",
			pattern:     "/health",
			path:        "/api/health",
			expectMatch: false,
		},
		{
			name:            "single variable",
			pattern:         "/users/{id}",
			path:            "/users/42",
			expectMatch:     true,
			expectedMatched: "/users/42/",
			expectedParams:  map[string]string{"id": "42"},
		},
		{
			name:            "path is lower-cased",
			pattern:         "/Users/{name}",
			path:            "/USERS/Nicolas",
			expectMatch:     true,
			expectedMatched: "/users/nicolas/",
			expectedParams:  map[string]string{"name": "nicolas"},
		},
		{
			name:            "variable pattern matches deeper path by prefix",
			pattern:         "/users/{id}",
			path:            "/users/1/account/9",
			expectMatch:     true,
			expectedMatched: "/users/1/",
			expectedParams:  map[string]string{"id": "1"},
		},
		{
			name:        "match must start at offset zero",
			pattern:     "/users/{id}",
			path:        "/api/users/1",
			expectMatch: false,
		},
		{
			name:        "empty segment does not bind",
			pattern:     "/users/{id}",
			path:        "/users/",
			expectMatch: false,
		},
		{
			name:            "two variables",
			pattern:         "/users/:id/account/:acctId",
			path:            "users/1/account/9/",
			expectMatch:     true,
			expectedMatched: "/users/1/account/9/",
			expectedParams:  map[string]string{"id": "1", "acctId": "9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := MustCompile(tt.pattern)
			m, ok := Match(tt.path, p)
			assert.Equal(t, tt.expectMatch, ok)
			if !tt.expectMatch {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.expectedMatched, m.Matched)
			assert.Equal(t, p.Route(), m.Route)
			assert.Equal(t, tt.expectedParams, m.Params)
		})
	}
}

func TestMatch_NilPattern(t *testing.T) {
	t.Parallel()

	m, ok := Match("/x", nil)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestMatch_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		values  map[string]string
		path    string
	}{
		{
			pattern: "/users/{id}",
			values:  map[string]string{"id": "abc"},
			path:    "/users/abc",
		},
		{
			pattern: "/users/{id}/account/{acctId}",
			values:  map[string]string{"id": "7", "acctId": "x-1"},
			path:    "/users/7/account/x-1",
		},
		{
			pattern: "/:org/:repo/issues/:n",
			values:  map[string]string{"org": "acme", "repo": "web", "n": "12"},
			path:    "/acme/web/issues/12/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()

			m, ok := Match(tt.path, MustCompile(tt.pattern))
			require.True(t, ok)
			assert.Equal(t, tt.values, m.Params)
		})
	}
}

func TestBest_LongestLiteralWins(t *testing.T) {
	t.Parallel()

	patterns := []*Pattern{
		MustCompile("/users/{id}"),
		MustCompile("/users/{id}/account/{acctId}"),
	}

	m, ok := Best("/users/1/account/9", patterns)
	require.True(t, ok)
	assert.Equal(t, "/users/{id}/account/{acctId}/", m.Route)
	assert.Equal(t, map[string]string{"id": "1", "acctId": "9"}, m.Params)

	m, ok = Best("/users/1", patterns)
	require.True(t, ok)
	assert.Equal(t, "/users/{id}/", m.Route)
}

func TestBest_TieKeepsFirst(t *testing.T) {
	t.Parallel()

	patterns := []*Pattern{
		MustCompile("/items/{a}"),
		MustCompile("/items/:b"),
	}

	m, ok := Best("/items/5", patterns)
	require.True(t, ok)
	assert.Equal(t, "/items/{a}/", m.Route)
	assert.Equal(t, map[string]string{"a": "5"}, m.Params)
}

func TestBest_NoMatch(t *testing.T) {
	t.Parallel()

	m, ok := Best("/nothing", []*Pattern{MustCompile("/users/{id}")})
	assert.False(t, ok)
	assert.Nil(t, m)

	m, ok = Best("/nothing", nil)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestLonger(t *testing.T) {
	t.Parallel()

	short := &MatchResult{Matched: "/a/"}
	long := &MatchResult{Matched: "/a/b/"}

	assert.True(t, Longer(long, short))
	assert.False(t, Longer(short, long))
	assert.False(t, Longer(short, short))
	assert.True(t, Longer(short, nil))
	assert.False(t, Longer(nil, short))
}
