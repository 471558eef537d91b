package cors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vyrodovalexey/webfunc/internal/util"
)

// Reason identifies why a request was denied.
type Reason string

// Denial reasons.
const (
	ReasonNone   Reason = ""
	ReasonOrigin Reason = "Origin not allowed"
	ReasonMethod Reason = "Method not allowed"
)

// Label returns a short metric label for r.
func (r Reason) Label() string {
	switch r {
	case ReasonOrigin:
		return "origin"
	case ReasonMethod:
		return "method"
	}
	return "none"
}

var defaultMethods = map[string]bool{
	http.MethodHead:    true,
	http.MethodGet:     true,
	http.MethodOptions: true,
	http.MethodPost:    true,
}

// Decision is the outcome of validating one request.
type Decision struct {
	Allowed bool
	Reason  Reason
	Origin  string
	Method  string

	policy       *Policy
	originPassed bool
}

// Validate checks a request's origin and method against p. The first
// failing check wins. Requests without an Origin header are treated as
// same-origin.
func Validate(origin, referer, method string, p *Policy) Decision {
	if p == nil {
		p = PolicyFromHeaders(nil)
	}
	method = strings.ToUpper(method)
	d := Decision{Origin: origin, Method: method, policy: p}

	if !p.Explicit() {
		if origin != "" && !strings.HasPrefix(referer, origin) {
			return d.deny(ReasonOrigin)
		}
		if !defaultMethods[method] {
			return d.deny(ReasonMethod)
		}
		d.originPassed = origin != ""
		d.Allowed = true
		return d
	}

	if p.restrictsOrigins() && origin != "" && !p.isOriginAllowed(origin) {
		return d.deny(ReasonOrigin)
	}

	if len(p.allowMethods) > 0 &&
		method != http.MethodGet && method != http.MethodHead &&
		!p.allowMethods[method] {
		return d.deny(ReasonMethod)
	}

	d.originPassed = p.isOriginAllowed(origin)
	d.Allowed = true
	return d
}

func (d Decision) deny(reason Reason) Decision {
	d.Allowed = false
	d.Reason = reason
	return d
}

// Message returns the client-facing body of a denial.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonOrigin:
		return fmt.Sprintf("Forbidden - CORS issue. Origin '%s' is not allowed.", d.Origin)
	case ReasonMethod:
		return fmt.Sprintf("Forbidden - CORS issue. Method '%s' is not allowed.", d.Method)
	}
	return ""
}

// Err returns the denial as an error, or nil when the request is allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return util.NewCorsViolation(d.Origin, d.Method, string(d.Reason))
}

// Apply writes the response headers of an allowed request into h,
// including the configured non-CORS headers. It does nothing on denial.
func (d Decision) Apply(h http.Header) {
	if !d.Allowed {
		return
	}
	p := d.policy

	for name, values := range p.extra {
		h[name] = append([]string(nil), values...)
	}

	if d.originPassed {
		h.Set(HeaderAllowOrigin, d.Origin)
	} else {
		h.Set(HeaderAllowOrigin, "null")
	}

	if p.allowCredentials != "" {
		h.Set(HeaderAllowCredentials, p.allowCredentials)
	}
	if p.exposeHeaders != "" {
		h.Set(HeaderExposeHeaders, p.exposeHeaders)
	}
	if p.allowHeaders != "" {
		h.Set(HeaderAllowHeaders, p.allowHeaders)
	}
	if p.allowMethodsRaw != "" {
		h.Set(HeaderAllowMethods, p.allowMethodsRaw)
	} else {
		h.Set(HeaderAllowMethods, DefaultAllowMethods)
	}
	if p.maxAge != "" {
		h.Set(HeaderMaxAge, p.maxAge)
	}

	if p.restrictsOrigins() && !hasToken(h.Values("Vary"), "Origin") {
		h.Add("Vary", "Origin")
	}
}

func hasToken(values []string, token string) bool {
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(item), token) {
				return true
			}
		}
	}
	return false
}
