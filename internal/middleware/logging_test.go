// internal/middleware/logging_test.go
package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()

	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/room/list", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/room/list", entry.Data["path"])
}

func TestLogWebSocketLifecycle(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogWebSocketConnect(logger, "10.0.0.1:5000", "/match/ws/abc")
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "WebSocket connected", hook.LastEntry().Message)
	assert.Equal(t, "/match/ws/abc", hook.LastEntry().Data["path"])

	LogWebSocketDisconnect(logger, "10.0.0.1:5000", "/match/ws/abc", nil)
	require.Len(t, hook.Entries, 2)
	assert.Equal(t, "WebSocket disconnected", hook.LastEntry().Message)
	_, hasErr := hook.LastEntry().Data["error"]
	assert.False(t, hasErr, "no error field on a clean close")

	LogWebSocketDisconnect(logger, "10.0.0.1:5000", "/match/ws/abc", errors.New("read timeout"))
	require.Len(t, hook.Entries, 3)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.NotNil(t, hook.LastEntry().Data["error"])
}
