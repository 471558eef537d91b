package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/webfunc/internal/handler"
)

func newTestRequest(method, path string) *handler.Request {
	req := handler.NewRequest(context.Background(), method, path)
	req.RemoteAddr = "192.0.2.10:51234"
	req.TransactionID = "tx-1"
	return req
}

func run(t *testing.T, req *handler.Request, handlers ...handler.Handler) (*httptest.ResponseRecorder, error) {
	t.Helper()

	rec := httptest.NewRecorder()
	res := handler.NewResponse(rec)
	err := handler.Run(req, res, handlers, nil)
	return rec, err
}

func okHandler() handler.Handler {
	return handler.Terminal(func(_ *handler.Request, res handler.ResponseWriter) error {
		return res.Send("ok")
	})
}

func requireBody(t *testing.T, rec *httptest.ResponseRecorder, status int, body string) {
	t.Helper()
	require.Equal(t, status, rec.Code)
	require.Equal(t, body, rec.Body.String())
}
