package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"warden/cmd/internal/kv"
)

func discardLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	registerHTTP(mux, discardLogger(), Config{}, nil, kv.NewMemory(), false, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
}

func TestReadyzWithMemoryStores(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	registerHTTP(mux, discardLogger(), Config{}, nil, kv.NewMemory(), false, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200 with in-memory stores, got %d", rec.Code)
	}
}

func TestReadyzEnforcesBackendPolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
		want int
	}{
		{name: "require db without db", cfg: Config{ReadinessRequireDB: true}, want: http.StatusServiceUnavailable},
		{name: "require redis without redis", cfg: Config{ReadinessRequireRedis: true}, want: http.StatusServiceUnavailable},
		{name: "no requirements", cfg: Config{}, want: http.StatusOK},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			registerHTTP(mux, discardLogger(), tc.cfg, nil, kv.NewMemory(), false, nil, nil)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tc.want {
				t.Fatalf("readyz: expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	registerHTTP(mux, discardLogger(), Config{}, nil, kv.NewMemory(), false, NewMetrics(), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Fatal("metrics: expected exposition output")
	}
}
