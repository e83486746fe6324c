package server

import (
	"context"
	"encoding/json"
	"image/color"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 70000
	_, err := New(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.MaxUploadBytes = -1
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_NilLogger(t *testing.T) {
	s, err := New(testConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.analyzer)
}

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())

	cfg.Host = "::1"
	cfg.Port = 8080
	assert.Equal(t, "[::1]:8080", cfg.Addr())
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestSwaggerUI(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger-ui", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<div id="swagger-ui"></div>`)
	assert.Contains(t, rec.Body.String(), "swagger-ui-dist@"+swaggerUIVersion)
	assert.Contains(t, rec.Body.String(), "openapi.json")
}

func TestOpenAPIDocuments(t *testing.T) {
	h := newTestServer(t, testConfig(), WithVersion("1.2.3")).Handler()

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, openAPIJSONPath, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
		info := doc["info"].(map[string]interface{})
		assert.Equal(t, "Web Image Intensity Calculator API", info["title"])
		assert.Equal(t, "1.2.3", info["version"])
		paths := doc["paths"].(map[string]interface{})
		assert.Contains(t, paths, "/calculate-intensity")
		assert.Contains(t, paths, "/health")
	})

	t.Run("yaml", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, openAPIYAMLPath, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))

		var doc map[string]interface{}
		require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
		assert.Contains(t, doc["paths"], "/calculate-intensity")
	})
}

func TestDocsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.DocsEnabled = false
	cfg.MetricsEnabled = false
	h := newTestServer(t, cfg).Handler()

	for _, path := range []string{"/swagger-ui", openAPIJSONPath, openAPIYAMLPath, "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, CodeNotFound, decodeError(t, rec).Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/calculate-intensity"},
		{http.MethodPut, "/calculate-intensity"},
		{http.MethodPost, "/health"},
		{http.MethodDelete, "/metrics"},
		{http.MethodPost, openAPIJSONPath},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, CodeMethodNotAllowed, decodeError(t, rec).Code)
	}
}

func TestCORS(t *testing.T) {
	t.Run("permissive preflight", func(t *testing.T) {
		h := newTestServer(t, testConfig()).Handler()

		req := httptest.NewRequest(http.MethodOptions, "/calculate-intensity", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("restricted origins", func(t *testing.T) {
		cfg := testConfig()
		cfg.CORSOrigins = []string{"https://app.example"}
		h := newTestServer(t, cfg).Handler()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.CORSEnabled = false
		h := newTestServer(t, cfg).Handler()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	require.Equal(t, http.StatusOK, upload(t, h, solidPNG(t, 4, 4, color.RGBA{R: 90, G: 90, B: 90, A: 255})).Code)
	require.Equal(t, http.StatusUnprocessableEntity, upload(t, h, []byte("\x00garbage")).Code)
	require.Equal(t, http.StatusBadRequest, upload(t, h, nil).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := rec.Body.String()
	assert.Contains(t, out, `image_intensity_calculate_request_count{code="ok",status="200"} 1`)
	assert.Contains(t, out, `image_intensity_calculate_request_count{code="unsupported_format",status="422"} 1`)
	assert.Contains(t, out, `image_intensity_calculate_request_count{code="missing_input",status="400"} 1`)
	assert.Contains(t, out, `image_intensity_calculate_pixels_processed_total{format="png"} 16`)
}

func TestMetrics_IndependentServers(t *testing.T) {
	// Each server owns its registry; building several must not panic.
	for i := 0; i < 3; i++ {
		newTestServer(t, testConfig())
	}
}

func TestRecovery(t *testing.T) {
	h := recovery(newTestServer(t, testConfig()).logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler bug")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, decodeError(t, rec).Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, testConfig())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.TrimSpace(string(body)) == "OK"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	s := newTestServer(t, cfg)

	assert.Error(t, s.Run(context.Background()))
}
