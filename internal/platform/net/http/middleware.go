package http

import (
	stdhttp "net/http"
	"runtime/debug"
	"time"

	"timejar/internal/platform/logger"

	mw "github.com/go-chi/chi/v5/middleware"
)

// slowRequest turns the access log line into a warning
const slowRequest = 500 * time.Millisecond

// AccessLog logs request duration and status
func AccessLog(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		sw := &capture{ResponseWriter: w, status: stdhttp.StatusOK}
		start := time.Now()

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		log := logger.Named("http")
		evt := log.Debug()
		if elapsed >= slowRequest {
			evt = log.Warn()
		}
		evt.Int("status", sw.status).
			Dur("elapsed", elapsed).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", mw.GetReqID(r.Context())).
			Msg("request done")
	})
}

type capture struct {
	stdhttp.ResponseWriter
	status int
}

func (c *capture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

// Recover converts panics into a JSON 500 and logs the stack
func Recover(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			logger.Named("http").Error().
				Str("request_id", mw.GetReqID(r.Context())).
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			JSON(w, stdhttp.StatusInternalServerError, Envelope{
				StatusCode: stdhttp.StatusInternalServerError,
				Status:     stdhttp.StatusText(stdhttp.StatusInternalServerError),
				Error:      "internal error",
			})
		}()
		next.ServeHTTP(w, r)
	})
}
