package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
)

var errHijackUnsupported = errors.New("response writer does not support hijacking")

// statusWriter records the status and size of a response. It passes Hijack
// through so the overlay stream can upgrade behind the middleware stack.
type statusWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func wrapWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	n, err := sw.ResponseWriter.Write(b)
	sw.written += int64(n)
	return n, err
}

func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errHijackUnsupported
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		sw.status = http.StatusSwitchingProtocols
		sw.wroteHeader = true
	}
	return conn, rw, err
}

func (sw *statusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }

// requestInfo collects what inner middleware learns about a request, such
// as the authenticated driver, for the outer logging and tracing layers.
type requestInfo struct {
	mu       sync.Mutex
	driverID string
}

type requestInfoKey struct{}

// withRequestInfo returns the request's info, attaching a new one if the
// context has none yet.
func withRequestInfo(ctx context.Context) (context.Context, *requestInfo) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		return ctx, info
	}
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoKey{}, info), info
}

func recordDriver(ctx context.Context, driverID string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.mu.Lock()
		info.driverID = driverID
		info.mu.Unlock()
	}
}

// loggedDriver returns the driver Auth recorded for the request, if any.
func loggedDriver(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		return info.driver()
	}
	return ""
}

func (i *requestInfo) driver() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.driverID
}
