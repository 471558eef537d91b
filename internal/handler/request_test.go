package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/webfunc/internal/params"
	"github.com/vyrodovalexey/webfunc/internal/route"
)

func TestFromHTTP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/users/1?sort=asc&sort=desc", strings.NewReader(`{"a":1}`))
	r.Header.Set("Content-Type", "application/json")
	r.RemoteAddr = "10.0.0.1:1234"

	req, err := FromHTTP(r, 1024)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/users/1", req.Path)
	assert.Equal(t, "asc", req.Query.Get("sort"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(req.Body))
	assert.Equal(t, "10.0.0.1:1234", req.RemoteAddr)
	assert.Equal(t, r.Context(), req.Context())
	assert.Equal(t, params.Params{"sort": "asc"}, req.QueryParams())
}

func TestFromHTTP_BodyLimit(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))

	_, err := FromHTTP(r, 5)
	assert.True(t, errors.Is(err, ErrBodyTooLarge))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	req, err := FromHTTP(r, 10)
	require.NoError(t, err)
	assert.Len(t, req.Body, 10)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	req, err = FromHTTP(r, 0)
	require.NoError(t, err)
	assert.Len(t, req.Body, 10)
}

func TestFromHTTP_NoBody(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req, err := FromHTTP(r, 10)
	require.NoError(t, err)
	assert.Nil(t, req.Body)
	assert.Equal(t, params.Params{}, req.BodyParams())
}

func TestRequest_BodyParamsComputedOnce(t *testing.T) {
	t.Parallel()

	req := NewRequest(context.Background(), http.MethodPost, "/")
	req.Header.Set("Content-Type", "application/json")
	req.Body = []byte(`{"name":"nic"}`)

	first := req.BodyParams()
	assert.Equal(t, params.Params{"name": "nic"}, first)

	req.Body = []byte(`{"name":"changed"}`)
	second := req.BodyParams()
	assert.Equal(t, "nic", second["name"])
}

func TestRequest_ParsedBody(t *testing.T) {
	t.Parallel()

	req := NewRequest(context.Background(), http.MethodPost, "/")
	req.ParsedBody = map[string]any{"pre": "parsed"}
	assert.Equal(t, params.Params{"pre": "parsed"}, req.BodyParams())
}

func TestRequest_ParamBags(t *testing.T) {
	t.Parallel()

	req := NewRequest(context.Background(), http.MethodGet, "/")
	assert.Equal(t, DefaultParamsName, req.ParamsName())

	req.Params()["a"] = 1
	assert.Equal(t, 1, req.Bag(DefaultParamsName)["a"])

	req.SetParamsName("args")
	assert.Equal(t, "args", req.ParamsName())
	assert.Empty(t, req.Params())

	req.Params()["b"] = 2
	assert.Equal(t, 2, req.Bag("args")["b"])
	assert.Equal(t, 1, req.Bag(DefaultParamsName)["a"])
}

func TestRequest_RouteParams(t *testing.T) {
	t.Parallel()

	req := NewRequest(context.Background(), http.MethodGet, "/users/1")
	assert.Empty(t, req.RouteParams())

	m, ok := route.Match("/users/1", route.MustCompile("/users/{id}"))
	require.True(t, ok)
	req.Match = m
	assert.Equal(t, map[string]string{"id": "1"}, req.RouteParams())
}

func TestRequest_ContextAndElapsed(t *testing.T) {
	t.Parallel()

	req := NewRequest(nil, http.MethodGet, "/")
	assert.NotNil(t, req.Context())
	assert.Zero(t, req.Elapsed())

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	req.SetContext(ctx)
	req.SetContext(nil)
	assert.Equal(t, "v", req.Context().Value(key{}))

	req.ReceivedAt = time.Now().Add(-time.Second)
	assert.GreaterOrEqual(t, req.Elapsed(), time.Second)
}
