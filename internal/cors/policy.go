package cors

import (
	"net/http"
	"strings"
)

// CORS response header names.
const (
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderExposeHeaders    = "Access-Control-Expose-Headers"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderMaxAge           = "Access-Control-Max-Age"
)

// DefaultAllowMethods is advertised when no method list is configured.
const DefaultAllowMethods = "GET, HEAD, OPTIONS, POST"

var corsHeaderNames = map[string]struct{}{
	HeaderAllowOrigin:      {},
	HeaderAllowMethods:     {},
	HeaderAllowHeaders:     {},
	HeaderExposeHeaders:    {},
	HeaderAllowCredentials: {},
	HeaderMaxAge:           {},
}

// Policy is an immutable CORS policy.
type Policy struct {
	allowOrigins     map[string]bool
	wildcardPatterns []string // patterns like "*.example.com"
	allowAllOrigins  bool
	allowMethods     map[string]bool
	allowMethodsRaw  string
	allowHeaders     string
	exposeHeaders    string
	allowCredentials string
	maxAge           string
	explicit         bool
	extra            http.Header
}

// PolicyFromHeaders builds a policy from configured response headers.
// Header names are matched case-insensitively. Headers other than the CORS
// ones are kept and written on every allowed response.
func PolicyFromHeaders(headers map[string]string) *Policy {
	p := &Policy{
		allowOrigins: make(map[string]bool),
		allowMethods: make(map[string]bool),
		extra:        make(http.Header),
	}

	for name, value := range headers {
		key := http.CanonicalHeaderKey(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		if _, ok := corsHeaderNames[key]; !ok {
			p.extra.Set(key, value)
			continue
		}
		p.explicit = true

		switch key {
		case HeaderAllowOrigin:
			for _, origin := range splitList(value) {
				switch {
				case origin == "*":
					p.allowAllOrigins = true
				case strings.HasPrefix(origin, "*."):
					p.wildcardPatterns = append(p.wildcardPatterns, strings.ToLower(origin))
				default:
					p.allowOrigins[strings.ToLower(origin)] = true
				}
			}
		case HeaderAllowMethods:
			p.allowMethodsRaw = value
			for _, m := range splitList(value) {
				p.allowMethods[strings.ToUpper(m)] = true
			}
		case HeaderAllowHeaders:
			p.allowHeaders = value
		case HeaderExposeHeaders:
			p.exposeHeaders = value
		case HeaderAllowCredentials:
			p.allowCredentials = value
		case HeaderMaxAge:
			p.maxAge = value
		}
	}

	return p
}

// Explicit reports whether any CORS header was configured.
func (p *Policy) Explicit() bool {
	return p != nil && p.explicit
}

// Extra returns a copy of the configured non-CORS headers.
func (p *Policy) Extra() http.Header {
	if p == nil {
		return http.Header{}
	}
	return p.extra.Clone()
}

// restrictsOrigins reports whether an explicit, non-wildcard origin list
// is configured.
func (p *Policy) restrictsOrigins() bool {
	return !p.allowAllOrigins && (len(p.allowOrigins) > 0 || len(p.wildcardPatterns) > 0)
}

func (p *Policy) isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if p.allowAllOrigins {
		return true
	}
	origin = strings.ToLower(origin)
	if p.allowOrigins[origin] {
		return true
	}
	for _, pattern := range p.wildcardPatterns {
		if matchWildcardOrigin(origin, pattern) {
			return true
		}
	}
	return false
}

// matchWildcardOrigin reports whether origin matches a "*.example.com"
// pattern. At least one subdomain label is required.
func matchWildcardOrigin(origin, pattern string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	suffix := pattern[1:]

	host := origin
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	return len(host) > len(suffix) && strings.HasSuffix(host, suffix)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
