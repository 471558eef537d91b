package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/vyrodovalexey/webfunc/internal/params"
	"github.com/vyrodovalexey/webfunc/internal/route"
)

// DefaultParamsName is the name of the merged parameter bag.
const DefaultParamsName = "params"

// ErrBodyTooLarge is returned by FromHTTP when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Request is the normalized request seen by handlers. A Request belongs to
// exactly one dispatch and is never shared.
type Request struct {
	Method     string
	Path       string
	Query      url.Values
	Header     http.Header
	Body       []byte
	RemoteAddr string

	// ParsedBody is a body already decoded by the hosting environment.
	ParsedBody any

	TransactionID string
	ReceivedAt    time.Time

	// Match is the winning route match, set once routing succeeds.
	Match *route.MatchResult

	ctx        context.Context
	paramsName string
	bags       map[string]params.Params

	bodyOnce   sync.Once
	bodyParams params.Params
}

// NewRequest creates an empty request for method and path.
func NewRequest(ctx context.Context, method, path string) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Request{
		Method: method,
		Path:   path,
		Query:  url.Values{},
		Header: http.Header{},
		ctx:    ctx,
	}
}

// FromHTTP builds a Request from an *http.Request, reading at most maxBody
// bytes of body. A non-positive maxBody disables the limit.
func FromHTTP(r *http.Request, maxBody int64) (*Request, error) {
	req := NewRequest(r.Context(), r.Method, r.URL.Path)
	req.Query = r.URL.Query()
	req.Header = r.Header.Clone()
	req.RemoteAddr = r.RemoteAddr

	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}

	var body io.Reader = r.Body
	if maxBody > 0 {
		body = io.LimitReader(r.Body, maxBody+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if maxBody > 0 && int64(len(data)) > maxBody {
		return nil, ErrBodyTooLarge
	}
	req.Body = data

	return req, nil
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// SetContext replaces the request context.
func (r *Request) SetContext(ctx context.Context) {
	if ctx != nil {
		r.ctx = ctx
	}
}

// Elapsed returns the time since the request was received.
func (r *Request) Elapsed() time.Duration {
	if r.ReceivedAt.IsZero() {
		return 0
	}
	return time.Since(r.ReceivedAt)
}

// BodyParams returns the decoded body. It is computed on first use.
func (r *Request) BodyParams() params.Params {
	r.bodyOnce.Do(func() {
		r.bodyParams = params.ExtractBody(r.Header.Get("Content-Type"), r.Body, r.ParsedBody)
	})
	return r.bodyParams
}

// QueryParams returns the flattened query string.
func (r *Request) QueryParams() params.Params {
	return params.ExtractQuery(r.Query)
}

// RouteParams returns the variables captured by the winning route.
func (r *Request) RouteParams() map[string]string {
	if r.Match == nil {
		return map[string]string{}
	}
	return r.Match.Params
}

// SetParamsName renames the merged parameter bag.
func (r *Request) SetParamsName(name string) {
	r.paramsName = name
}

// ParamsName returns the name of the merged parameter bag.
func (r *Request) ParamsName() string {
	if r.paramsName == "" {
		return DefaultParamsName
	}
	return r.paramsName
}

// Params returns the merged parameter bag, creating it if needed.
func (r *Request) Params() params.Params {
	return r.Bag(r.ParamsName())
}

// Bag returns the named parameter bag, creating it if needed.
func (r *Request) Bag(name string) params.Params {
	if r.bags == nil {
		r.bags = make(map[string]params.Params)
	}
	bag, ok := r.bags[name]
	if !ok {
		bag = make(params.Params)
		r.bags[name] = bag
	}
	return bag
}
