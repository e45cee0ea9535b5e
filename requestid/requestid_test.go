package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bluescreen10/voxara/requestid"
)

func TestGeneratesID(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	})

	w := httptest.NewRecorder()
	requestid.New().Handler(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected request id on context")
	}

	if got := w.Header().Get(requestid.DefaultHeader); got != seen {
		t.Fatalf("expected header '%s' got '%s'", seen, got)
	}
}

func TestReusesIncomingID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		want     string
	}{
		{"reused", "abc-123", "abc-123"},
		{"too long", strings.Repeat("x", 200), "generated"},
		{"empty", "", "generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = requestid.FromContext(r.Context())
			})

			rid := requestid.New(requestid.WithGenerator(func() string { return "generated" }))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				r.Header.Set(requestid.DefaultHeader, tt.incoming)
			}
			rid.Handler(h).ServeHTTP(httptest.NewRecorder(), r)

			if seen != tt.want {
				t.Fatalf("expected '%s' got '%s'", tt.want, seen)
			}
		})
	}
}

func TestCustomHeader(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Trace-ID", "trace-1")
	w := httptest.NewRecorder()
	requestid.New(requestid.WithHeader("X-Trace-ID")).Handler(h).ServeHTTP(w, r)

	if got := w.Header().Get("X-Trace-ID"); got != "trace-1" {
		t.Fatalf("expected 'trace-1' got '%s'", got)
	}
}

func TestFromEmptyContext(t *testing.T) {
	if id := requestid.FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Fatalf("expected '' got '%s'", id)
	}
}
