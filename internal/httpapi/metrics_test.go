package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 200: "200", 404: "404", 503: "503"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestStatusRecorderCapturesCode(t *testing.T) {
	rr := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rr, status: 200}
	sr.WriteHeader(http.StatusTeapot)
	if sr.status != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", sr.status)
	}
	if rr.Code != http.StatusTeapot {
		t.Fatalf("underlying code = %d", rr.Code)
	}
}

func TestRoutePatternOrPath(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			got = routePatternOrPath(req)
		})
	}).Get("/generations/{id}/retry", func(w http.ResponseWriter, req *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/generations/abc/retry", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	if got != "/generations/{id}/retry" {
		t.Fatalf("pattern = %q", got)
	}

	// Outside a chi route the raw path is the fallback.
	plain := httptest.NewRequest(http.MethodGet, "/whatever", nil)
	if got := routePatternOrPath(plain); got != "/whatever" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
}
