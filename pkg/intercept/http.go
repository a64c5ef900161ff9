package intercept

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"vaani-labs/drishti/pkg/classify"
)

// maxCapturedBody caps how much of a request or response payload the
// adapter buffers for extraction. Payloads past the cap flow through
// unbuffered and yield no business metrics.
const maxCapturedBody = 16 << 20

// componentLatencyHeader is the response header backends use to report
// their own processing time in milliseconds.
const componentLatencyHeader = "X-Processing-Time-Ms"

// Middleware adapts the interceptor to net/http. Request bodies are read
// and restored so downstream handlers see them untouched; response bodies
// are buffered only when an extractor for the classified service needs
// them.
func (i *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.enabled {
			next.ServeHTTP(w, r)
			return
		}

		body := captureBody(r)
		req := &Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		}

		capture := i.WantsResponseBody(r.URL.Path, classify.ShapeOf(body))
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if capture {
			rw.body = &bytes.Buffer{}
		}

		handler := func(ctx context.Context, req *Request) (*Response, error) {
			next.ServeHTTP(rw, r.WithContext(ctx))
			resp := &Response{
				StatusCode:       rw.statusCode,
				BytesWritten:     rw.bytesWritten,
				ComponentLatency: componentLatency(rw.Header()),
			}
			if rw.body != nil {
				resp.Body = rw.body.Bytes()
			}
			return resp, nil
		}

		// Handler panics re-raise through Around after the outcome is
		// recorded; recovery into a 500 is the server's concern.
		_, _ = i.Around(handler)(r.Context(), req)
	})
}

// captureBody reads the request payload and replaces it with a fresh
// reader. Oversized or unreadable bodies are left alone.
func captureBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if r.ContentLength > maxCapturedBody {
		return nil
	}
	orig := r.Body
	data, err := io.ReadAll(io.LimitReader(orig, maxCapturedBody+1))
	if err != nil || int64(len(data)) > maxCapturedBody {
		// The payload was not fully consumed. Stitch the read prefix back
		// onto the original reader so the handler sees the whole stream.
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(data), orig), orig}
		return nil
	}
	orig.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data
}

func componentLatency(h http.Header) time.Duration {
	raw := h.Get(componentLatencyHeader)
	if raw == "" {
		return 0
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// responseWriter records the status code and payload size as the handler
// writes, optionally teeing the payload into a buffer.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	written      bool
	body         *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.written {
		return
	}
	rw.statusCode = code
	rw.written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil && rw.body.Len()+len(b) <= maxCapturedBody {
		rw.body.Write(b)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
