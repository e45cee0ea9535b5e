package httpx

import "net/http"

// StatusRecorder wraps an http.ResponseWriter and remembers the status code
// and the number of body bytes written through it.
type StatusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

var _ http.ResponseWriter = &StatusRecorder{}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

func (rw *StatusRecorder) Write(data []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(data)
	rw.size += n
	return n, err
}

func (rw *StatusRecorder) WriteHeader(status int) {
	if rw.status == 0 {
		rw.status = status
	}
	rw.ResponseWriter.WriteHeader(status)
}

// Status returns the status sent to the client, 200 if the handler never
// called WriteHeader.
func (rw *StatusRecorder) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *StatusRecorder) Size() int {
	return rw.size
}

func (rw *StatusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
