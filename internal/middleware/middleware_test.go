package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
)

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/leora.v1.FinanceService/GetState", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leora.v1.FinanceService/GetState", nil))
	assert.True(t, called)
}

func TestLoggingInterceptorLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	interceptor := LoggingInterceptor(logger)

	call := func(err error) {
		buf.Reset()
		next := connect.UnaryFunc(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, err
		})
		_, _ = interceptor(next)(context.Background(), connect.NewRequest(&struct{}{}))
	}

	call(nil)
	assert.Contains(t, buf.String(), "level=DEBUG")

	call(connect.NewError(connect.CodeNotFound, assert.AnError))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "not_found")

	call(assert.AnError)
	assert.Contains(t, buf.String(), "level=ERROR")
}
