package middleware

import (
	"errors"
	"net/http"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/utils"
	"go.uber.org/zap"
)

type AppHandler func(http.ResponseWriter, *http.Request) error

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.status = statusCode
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindPersistence:
		return http.StatusServiceUnavailable
	case apperrors.KindRecommendation:
		return http.StatusBadGateway
	case apperrors.KindAuthenticationRequired:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindStale:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler adapts an AppHandler, writing typed errors as the response envelope.
func ErrorHandler(log *zap.Logger) func(AppHandler) http.HandlerFunc {
	return func(handler AppHandler) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", r.URL.Path))
					if !rw.wroteHeader {
						utils.RespondError(rw, nil, http.StatusInternalServerError, "Internal server error", nil)
					}
				}
			}()

			if err := handler(rw, r); err != nil {
				handleError(log, rw, r, err)
			}
		}
	}
}

func handleError(log *zap.Logger, w *responseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	var fields apperrors.FieldErrors

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status = StatusFor(appErr.Kind)
		message = appErr.Message
		fields = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	if w.wroteHeader {
		return
	}

	utils.RespondError(w, nil, status, message, fields)
}
