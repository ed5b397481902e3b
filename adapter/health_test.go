package adapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/heptiolabs/healthcheck"
	"github.com/stretchr/testify/assert"
)

type fakeReporter struct {
	alive error
	ready error
}

func (f *fakeReporter) Alive() error { return f.alive }
func (f *fakeReporter) Ready() error { return f.ready }

func serve(h healthcheck.Handler, path string) *testResponseWriter {
	req, _ := http.NewRequest("GET", path, nil)
	rw := &testResponseWriter{}
	h.ServeHTTP(rw, req)
	return rw
}

func TestRegisterHealthChecks(t *testing.T) {
	r := &fakeReporter{}
	health := healthcheck.NewHandler()
	RegisterHealthChecks(health, "metrics", r)

	assert.Equal(t, http.StatusOK, serve(health, "/live").status)
	assert.Equal(t, http.StatusOK, serve(health, "/ready").status)

	r.ready = errors.New("5 consecutive errors")
	assert.Equal(t, http.StatusOK, serve(health, "/live").status)
	assert.Equal(t, http.StatusServiceUnavailable, serve(health, "/ready").status)

	r.alive = errors.New("stopped")
	rw := serve(health, "/live?full=1")
	assert.Equal(t, http.StatusServiceUnavailable, rw.status)
	assert.Contains(t, string(rw.body), "bulkshm-metrics-alive")
}

func TestGlobalInstruments(t *testing.T) {
	meter, tracer := GlobalInstruments("test")
	assert.NotNil(t, meter)
	assert.NotNil(t, tracer)
}

type testResponseWriter struct {
	headers http.Header
	status  int
	body    []byte
}

func (w *testResponseWriter) Header() http.Header {
	if w.headers == nil {
		w.headers = make(http.Header)
	}
	return w.headers
}

func (w *testResponseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return len(b), nil
}

func (w *testResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
}
