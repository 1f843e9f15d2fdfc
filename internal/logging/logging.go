// Package logging builds the zap logger used by figma-sync processes and the
// request logging middleware of the HTTP API.
package logging

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// New builds a logger from cfg. An unknown level falls back to info.
// The returned level can be changed at runtime.
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Format == "console" {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	atom := zap.NewAtomicLevelAt(level)
	config.Level = atom
	if cfg.OutputPath != "" {
		config.OutputPaths = []string{cfg.OutputPath}
	}

	logger, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, atom, err
	}
	return logger, atom, nil
}

// Sugar builds a logger from cfg and returns its sugared form, which
// satisfies the library Logger interface.
func Sugar(cfg Config) (*zap.SugaredLogger, error) {
	logger, _, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// Middleware logs every request once it completes. Requests without an
// X-Request-ID header get a fresh one, echoed back in the response.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, requestID)

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Int64("size", rw.size),
				zap.Duration("duration", time.Since(start)),
			}

			switch {
			case rw.status >= 500:
				logger.Error("request failed", fields...)
			case rw.status >= 400:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}
