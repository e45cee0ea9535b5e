package httpx_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/bluescreen10/voxara/httpx"
)

func TestGroup(t *testing.T) {
	mux := httpx.NewServeMux()
	api := mux.Group("/api")
	var count int
	api.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		count++
	})

	r := httptest.NewRequest("GET", "/api/test", &bytes.Buffer{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if count != 1 {
		t.Fatalf("expected to be called '1' got '%d'", count)
	}
}

func TestUseMiddleware(t *testing.T) {
	mw1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Test-1", "test")
			next.ServeHTTP(w, r)
		})
	}

	mw2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Test-2", "test")
			next.ServeHTTP(w, r)
		})
	}

	mux := httpx.NewServeMux()
	mux.Use(mw1)
	mux.Use(mw2)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	})

	r := httptest.NewRequest("GET", "/", &bytes.Buffer{})
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	body, err := io.ReadAll(w.Body)
	if err != nil || string(body) != "hello world" {
		t.Fatalf("excted 'hello world' got '%s'", body)
	}

	if h := w.Result().Header.Get("Test-1"); h != "test" {
		t.Fatalf("expected header value to be 'test' got '%s'", h)
	}

	if h := w.Result().Header.Get("Test-2"); h != "test" {
		t.Fatalf("expected header value to be 'test' got '%s'", h)
	}
}

func TestGroupWithMiddlewares(t *testing.T) {
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Test", "test")
			next.ServeHTTP(w, r)
		})
	}

	mux := httpx.NewServeMux()
	api := mux.Group("/api", mw)
	api.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	})

	r := httptest.NewRequest("GET", "/api/test", &bytes.Buffer{})
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	body, err := io.ReadAll(w.Body)
	if err != nil || string(body) != "hello world" {
		t.Fatalf("excted 'hello world' got '%s'", body)
	}

	if h := w.Result().Header.Get("Test"); h != "test" {
		t.Fatalf("expected header value to be 'test' got '%s'", h)
	}
}

func TestStatic(t *testing.T) {
	assets := fstest.MapFS{
		"app.css": &fstest.MapFile{Data: []byte("body { margin: 0; }")},
	}

	mux := httpx.NewServeMux()
	mux.Static("/static/", assets)

	r := httptest.NewRequest("GET", "/static/app.css", &bytes.Buffer{})
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("error reading body")
	}

	if string(body) != "body { margin: 0; }" {
		t.Fatalf("expected stylesheet contents but got '%s'", body)
	}
}

func TestStaticMissing(t *testing.T) {
	mux := httpx.NewServeMux()
	mux.Static("/static/", fstest.MapFS{})

	r := httptest.NewRequest("GET", "/static/missing.css", &bytes.Buffer{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status '404' got '%d'", w.Code)
	}
}

func TestRootGroup(t *testing.T) {
	var gated int
	gate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gated++
			next.ServeHTTP(w, r)
		})
	}

	mux := httpx.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	app := mux.Group("", gate)
	app.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("home"))
	})

	tests := []struct {
		path  string
		body  string
		gated int
	}{
		{"/healthz", "ok", 0},
		{"/", "home", 1},
	}

	for _, tt := range tests {
		gated = 0
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

		if w.Body.String() != tt.body {
			t.Fatalf("%s: expected '%s' got '%s'", tt.path, tt.body, w.Body.String())
		}
		if gated != tt.gated {
			t.Fatalf("%s: expected gate to run '%d' times got '%d'", tt.path, tt.gated, gated)
		}
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got := strings.Join(order, ","); got != "first,second,handler" {
		t.Fatalf("expected 'first,second,handler' got '%s'", got)
	}
}
