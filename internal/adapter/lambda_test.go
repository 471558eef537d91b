package adapter

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/webfunc/internal/handler"
)

func TestLambdaHandler(t *testing.T) {
	t.Parallel()

	fn := LambdaHandler(newPipeline(t, "Hello"))

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/hello/nicolas",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello nicolas", resp.Body)
	assert.False(t, resp.IsBase64Encoded)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Headers["Content-Type"])
}

func TestLambdaHandler_Base64Body(t *testing.T) {
	t.Parallel()

	fn := LambdaHandler(newPipeline(t, "Hello"))

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/echo",
		Headers:         map[string]string{"Content-Type": "application/json"},
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"who":"lambda"}`)),
		IsBase64Encoded: true,
		QueryStringParameters: map[string]string{
			"page": "2",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"who":"lambda","page":"2"}`, resp.Body)
}

func TestLambdaHandler_Errors(t *testing.T) {
	t.Parallel()

	fn := LambdaHandler(newPipeline(t, "Hello"), WithMaxBodyBytes(4))

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/echo",
		Body:            "!!not base64!!",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = fn(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/echo",
		Body:       "too long",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestLambdaHandler_RequestMapping(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{}
	fn := LambdaHandler(d)

	resp, err := fn(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPut,
		Path:       "/items/1",
		MultiValueHeaders: map[string][]string{
			"X-Multi": {"a", "b"},
		},
		Headers: map[string]string{"Origin": "https://a.example"},
		MultiValueQueryStringParameters: map[string][]string{
			"tag": {"x", "y"},
		},
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity:         events.APIGatewayRequestIdentity{SourceIP: "198.51.100.4"},
			RequestTimeEpoch: 1_700_000_000_000,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "done", resp.Body)

	req := d.req
	require.NotNil(t, req)
	assert.Equal(t, []string{"a", "b"}, req.Header.Values("X-Multi"))
	assert.Equal(t, "https://a.example", req.Header.Get("Origin"))
	assert.Equal(t, []string{"x", "y"}, req.Query["tag"])
	assert.Equal(t, "198.51.100.4", req.RemoteAddr)
	assert.Equal(t, int64(1_700_000_000_000), req.ReceivedAt.UnixMilli())
}

func TestBufferedWriter_BinaryBody(t *testing.T) {
	t.Parallel()

	w := newBufferedWriter()
	res := handler.NewResponse(w)
	require.NoError(t, res.Send([]byte{0xff, 0xfe, 0x00}))

	resp := w.proxyResponse()
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00}), resp.Body)
	assert.Equal(t, []string{"application/octet-stream"}, resp.MultiValueHeaders["Content-Type"])
}
