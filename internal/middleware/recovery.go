package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2beens/workoutlog/internal/telemetry/metrics"
	"github.com/2beens/workoutlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500, unless the handler already
// started the response. http.ErrAbortHandler is passed on to net/http.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			resp := &headerTracker{ResponseWriter: respWriter}
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(r)
				}

				log.WithFields(log.Fields{
					"route": routeName(req),
					"path":  req.URL.Path,
					"trace": tracing.TraceID(req.Context()),
				}).Errorf("http: panic: %v\n%s", r, debug.Stack())
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				if !resp.wroteHeader {
					http.Error(respWriter, "internal error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(resp, req)
		})
	}
}

type headerTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (h *headerTracker) WriteHeader(statusCode int) {
	h.wroteHeader = true
	h.ResponseWriter.WriteHeader(statusCode)
}

func (h *headerTracker) Write(b []byte) (int, error) {
	h.wroteHeader = true
	return h.ResponseWriter.Write(b)
}
