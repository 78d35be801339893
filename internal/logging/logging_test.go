package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	if _, err := New("debug", "console"); err != nil {
		t.Fatalf("console logger: %v", err)
	}
	if _, err := New("info", "json"); err != nil {
		t.Fatalf("json logger: %v", err)
	}
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestMiddlewareLogsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var observed int
	handler := Middleware(zap.New(core), func(_ *http.Request, status int, _ time.Duration) {
		observed = status
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	if observed != http.StatusTeapot {
		t.Fatalf("observer got status %d", observed)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/pot" || fields["status"] != int64(http.StatusTeapot) || fields["bytes"] != int64(15) {
		t.Fatalf("unexpected fields %v", fields)
	}
}
