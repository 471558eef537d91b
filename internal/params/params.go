package params

import (
	"net/url"
	"strings"

	"github.com/vyrodovalexey/webfunc/internal/util"
)

// BodyKey holds a body that could not be decoded into named fields.
const BodyKey = "body"

// Params is a parameter bag keyed by name.
type Params map[string]any

// Part is a single multipart form field.
type Part struct {
	// Value is a string for text fields and []byte for files and binary parts.
	Value    any
	Filename string
	MimeType string
}

// Mode selects which sources contribute to the merged parameter bag.
type Mode string

// Parameter modes.
const (
	ModeAll   Mode = "all"
	ModeBody  Mode = "body"
	ModeRoute Mode = "route"
	ModeNone  Mode = "none"
)

// ParseMode parses a configured mode. The empty string selects ModeAll.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAll, nil
	case ModeAll, ModeBody, ModeRoute, ModeNone:
		return m, nil
	default:
		return "", util.NewConfigError("paramsMode",
			"unknown mode '"+s+"', expected one of all, body, route, none")
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAll, ModeBody, ModeRoute, ModeNone:
		return true
	}
	return false
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// String returns the value stored under key as a string. Multipart text
// fields are unwrapped.
func (p Params) String(key string) (string, bool) {
	switch v := p[key].(type) {
	case string:
		return v, true
	case Part:
		s, ok := v.Value.(string)
		return s, ok
	case []byte:
		return string(v), true
	}
	return "", false
}

// Update copies every entry of src into p, overwriting existing keys.
func (p Params) Update(src Params) {
	for k, v := range src {
		p[k] = v
	}
}

// ExtractQuery flattens query values keeping the first value of each key.
func ExtractQuery(values url.Values) Params {
	out := make(Params, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// Merge combines route variables, body and query parameters for mode.
// Query values override body values; route variables override both.
func Merge(route map[string]string, body, query Params, mode Mode) Params {
	out := make(Params)

	switch mode {
	case ModeNone:
		return out
	case ModeRoute:
		for k, v := range route {
			out[k] = v
		}
		return out
	case ModeBody:
		out.Update(body)
		out.Update(query)
		return out
	default:
		out.Update(body)
		out.Update(query)
		for k, v := range route {
			out[k] = v
		}
		return out
	}
}
