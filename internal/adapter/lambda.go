package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"github.com/vyrodovalexey/webfunc/internal/handler"
)

// LambdaFunc is the signature registered with lambda.Start.
type LambdaFunc func(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// LambdaHandler returns a function serving API Gateway proxy events through d.
// Binary request bodies arrive base64 encoded; response bodies that are not
// valid UTF-8 are returned base64 encoded.
func LambdaHandler(d Dispatcher, opts ...Option) LambdaFunc {
	o := newOptions(opts)
	return func(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := requestFromEvent(ctx, ev)
		if err != nil {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusBadRequest,
				Body:       http.StatusText(http.StatusBadRequest),
			}, nil
		}
		if o.maxBodyBytes > 0 && int64(len(req.Body)) > o.maxBodyBytes {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusRequestEntityTooLarge,
				Body:       http.StatusText(http.StatusRequestEntityTooLarge),
			}, nil
		}

		w := newBufferedWriter()
		res := handler.NewResponse(w)
		d.Dispatch(ctx, req, res)
		if !res.HeadersSent() {
			_ = res.End()
		}

		return w.proxyResponse(), nil
	}
}

func requestFromEvent(ctx context.Context, ev events.APIGatewayProxyRequest) (*handler.Request, error) {
	req := handler.NewRequest(ctx, ev.HTTPMethod, ev.Path)
	req.RemoteAddr = ev.RequestContext.Identity.SourceIP
	if ev.RequestContext.RequestTimeEpoch > 0 {
		req.ReceivedAt = time.UnixMilli(ev.RequestContext.RequestTimeEpoch)
	}

	req.Query = url.Values{}
	for k, vs := range ev.MultiValueQueryStringParameters {
		req.Query[k] = append([]string(nil), vs...)
	}
	for k, v := range ev.QueryStringParameters {
		if _, ok := req.Query[k]; !ok {
			req.Query.Set(k, v)
		}
	}

	req.Header = http.Header{}
	for k, vs := range ev.MultiValueHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range ev.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	if ev.Body == "" {
		return req, nil
	}
	if ev.IsBase64Encoded {
		body, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 body: %w", err)
		}
		req.Body = body
		return req, nil
	}
	req.Body = []byte(ev.Body)
	return req, nil
}

// bufferedWriter collects a response in memory.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: http.Header{}}
}

func (w *bufferedWriter) Header() http.Header {
	return w.header
}

func (w *bufferedWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *bufferedWriter) proxyResponse() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           make(map[string]string, len(w.header)),
		MultiValueHeaders: make(map[string][]string, len(w.header)),
	}
	for k, vs := range w.header {
		if len(vs) == 0 {
			continue
		}
		resp.Headers[k] = vs[0]
		resp.MultiValueHeaders[k] = append([]string(nil), vs...)
	}

	body := w.body.Bytes()
	if utf8.Valid(body) {
		resp.Body = string(body)
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(body)
		resp.IsBase64Encoded = true
	}
	return resp
}
