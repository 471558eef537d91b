package route

import (
	"regexp"
	"strings"

	"github.com/vyrodovalexey/webfunc/internal/util"
)

// wildcardGroup is the capture group emitted for every variable token.
const wildcardGroup = "(.+?)"

var varNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Pattern is a compiled route template. It is immutable once compiled.
type Pattern struct {
	route string
	vars  []string
	expr  string
	regex *regexp.Regexp
}

// Route returns the normalized template the pattern was compiled from.
func (p *Pattern) Route() string {
	return p.route
}

// Vars returns the variable names in template order.
func (p *Pattern) Vars() []string {
	out := make([]string, len(p.vars))
	copy(out, p.vars)
	return out
}

// Literal reports whether the template has no variables.
func (p *Pattern) Literal() bool {
	return len(p.vars) == 0
}

// String returns the compiled expression.
func (p *Pattern) String() string {
	return p.expr
}

// Normalize trims surrounding whitespace and returns s with exactly one
// leading and one trailing slash. Any query string is dropped.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "/")
	if s == "" {
		return "/"
	}
	return "/" + s + "/"
}

// NormalizePath normalizes a request path and lower-cases it.
func NormalizePath(path string) string {
	return strings.ToLower(Normalize(path))
}

// Compile parses a route template. Variables are written as {name} or
// :name, the latter running up to the next slash.
func Compile(pattern string) (*Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, util.NewInvalidPatternError(pattern, "empty pattern")
	}

	normalized := Normalize(pattern)
	c := compiler{source: pattern, seen: make(map[string]struct{})}
	c.expr.WriteByte('^')

	for i := 0; i < len(normalized); {
		switch ch := normalized[i]; ch {
		case '{':
			end := strings.IndexByte(normalized[i+1:], '}')
			if end < 0 {
				return nil, util.NewInvalidPatternError(pattern, "unbalanced braces")
			}
			name := normalized[i+1 : i+1+end]
			if strings.ContainsAny(name, "{/") {
				return nil, util.NewInvalidPatternError(pattern, "unbalanced braces")
			}
			if err := c.variable(name); err != nil {
				return nil, err
			}
			i += end + 2
		case '}':
			return nil, util.NewInvalidPatternError(pattern, "unbalanced braces")
		case ':':
			// The trailing slash guarantees a terminator.
			end := strings.IndexByte(normalized[i+1:], '/')
			if err := c.variable(normalized[i+1 : i+1+end]); err != nil {
				return nil, err
			}
			i += end + 1
		default:
			c.literal.WriteByte(ch)
			i++
		}
	}
	c.flush()

	// Literal templates must match the whole path.
	if len(c.vars) == 0 {
		c.expr.WriteByte('$')
	}

	expr := c.expr.String()
	re, err := defaultRegexCache.compile(expr)
	if err != nil {
		return nil, util.NewInvalidPatternError(pattern, err.Error())
	}
	if re.NumSubexp() != len(c.vars) {
		return nil, util.NewInvalidPatternError(pattern, "capture count does not match variable count")
	}

	return &Pattern{
		route: normalized,
		vars:  c.vars,
		expr:  expr,
		regex: re,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

type compiler struct {
	source  string
	expr    strings.Builder
	literal strings.Builder
	vars    []string
	seen    map[string]struct{}
}

func (c *compiler) flush() {
	if c.literal.Len() == 0 {
		return
	}
	c.expr.WriteString(regexp.QuoteMeta(strings.ToLower(c.literal.String())))
	c.literal.Reset()
}

func (c *compiler) variable(name string) error {
	if name == "" {
		return util.NewInvalidPatternError(c.source, "empty variable name")
	}
	if strings.ContainsAny(name, "{}") {
		return util.NewInvalidPatternError(c.source, "unbalanced braces")
	}
	if !varNamePattern.MatchString(name) {
		return util.NewInvalidPatternError(c.source, "invalid variable name '"+name+"'")
	}
	if _, dup := c.seen[name]; dup {
		return util.NewInvalidPatternError(c.source, "duplicate variable name '"+name+"'")
	}
	c.seen[name] = struct{}{}
	c.vars = append(c.vars, name)

	c.flush()
	c.expr.WriteString(wildcardGroup)
	return nil
}
