package media_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bluescreen10/voxara/media"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newClient(t *testing.T, h http.HandlerFunc) *media.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return media.NewClient(
		media.Endpoints{Speech: srv.URL + "/tts", Import: srv.URL + "/import", Video: srv.URL + "/ptv"},
		media.WithHTTPClient(srv.Client()),
		media.WithProxyAuth("wk-test", "ws-test"),
		media.WithInitialInterval(time.Millisecond),
		media.WithLogger(discard),
	)
}

func TestGenerateSpeech(t *testing.T) {
	var got map[string]string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Modal-Key") != "wk-test" || r.Header.Get("Modal-Secret") != "ws-test" {
			t.Errorf("missing proxy auth headers")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type '%s'", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"s3_key":"tts/abc.wav"}`))
	})

	res, err := c.GenerateSpeech(context.Background(), media.SpeechRequest{Text: "hello", VoiceKey: "samples/voices/a.wav"})
	if err != nil {
		t.Fatal(err)
	}

	if res.Key != "tts/abc.wav" {
		t.Fatalf("expected 'tts/abc.wav' got '%s'", res.Key)
	}

	if got["text"] != "hello" || got["voice_S3_Key"] != "samples/voices/a.wav" {
		t.Fatalf("unexpected request body %v", got)
	}
}

func TestImportFile(t *testing.T) {
	var got map[string]string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"s3_key":"fal/xyz.mp4"}`))
	})

	res, err := c.ImportFile(context.Background(), media.ImportRequest{URL: "https://example.com/v.mp4"})
	if err != nil {
		t.Fatal(err)
	}

	if res.Key != "fal/xyz.mp4" || got["video_url"] != "https://example.com/v.mp4" {
		t.Fatalf("unexpected result '%s' for body %v", res.Key, got)
	}
}

func TestGenerateVideo(t *testing.T) {
	var got map[string]string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"video_s3_key":"ptv/1.mp4"}`))
	})

	res, err := c.GenerateVideo(context.Background(), media.VideoRequest{
		Transcript: "hi",
		PhotoKey:   "photos/me.jpg",
		AudioKey:   "tts/abc.wav",
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Key != "ptv/1.mp4" {
		t.Fatalf("expected 'ptv/1.mp4' got '%s'", res.Key)
	}

	if got["transcript"] != "hi" || got["photo_S3_Key"] != "photos/me.jpg" || got["audio_S3_Key"] != "tts/abc.wav" {
		t.Fatalf("unexpected request body %v", got)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"s3_key":"tts/ok.wav"}`))
	})

	res, err := c.GenerateSpeech(context.Background(), media.SpeechRequest{Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}

	if res.Key != "tts/ok.wav" || calls.Load() != 3 {
		t.Fatalf("expected success on third call got '%s' after %d calls", res.Key, calls.Load())
	}
}

func TestGivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.GenerateSpeech(context.Background(), media.SpeechRequest{Text: "hello"})

	var serr *media.StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusBadGateway || serr.Body != "boom" {
		t.Fatalf("expected StatusError 502 got '%v'", err)
	}

	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls got %d", calls.Load())
	}
}

func TestNoRetryOnClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := c.GenerateVideo(context.Background(), media.VideoRequest{PhotoKey: "p", AudioKey: "a"})

	var serr *media.StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusUnauthorized || serr.Op != "generate video" {
		t.Fatalf("expected StatusError 401 got '%v'", err)
	}

	if calls.Load() != 1 {
		t.Fatalf("expected 1 call got %d", calls.Load())
	}
}

func TestInvalidRequests(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()

	_, err1 := c.GenerateSpeech(ctx, media.SpeechRequest{Text: "  "})
	_, err2 := c.ImportFile(ctx, media.ImportRequest{})
	_, err3 := c.GenerateVideo(ctx, media.VideoRequest{PhotoKey: "p"})

	for i, err := range []error{err1, err2, err3} {
		if !errors.Is(err, media.ErrInvalidRequest) {
			t.Fatalf("%d: expected ErrInvalidRequest got '%v'", i, err)
		}
	}
}

func TestMissingEndpoint(t *testing.T) {
	c := media.NewClient(media.Endpoints{}, media.WithLogger(discard))
	if _, err := c.ImportFile(context.Background(), media.ImportRequest{URL: "https://example.com"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMalformedResponse(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("not json"))
	})

	if _, err := c.GenerateSpeech(context.Background(), media.SpeechRequest{Text: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call got %d", calls.Load())
	}
}
