// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a handler failure and answers with the error page.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err at error level and renders a 500 page carrying
// userMsg. backURL defaults to the dashboard.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.Log.Error(logMsg, e.fields(r, err)...)
	RenderPage(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, orDefault(backURL))
}

// LogBadRequest logs at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.Log.Warn(logMsg, e.fields(r, err)...)
	RenderPage(w, r, http.StatusBadRequest, "Bad request", userMsg, orDefault(backURL))
}

// LogForbidden logs at info level and renders a 403 page.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg, userMsg, backURL string) {
	e.Log.Info(logMsg, e.fields(r, nil)...)
	RenderPage(w, r, http.StatusForbidden, "Access denied", userMsg, orDefault(backURL))
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	f := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if err != nil {
		f = append(f, zap.Error(err))
	}
	return f
}

func orDefault(backURL string) string {
	if backURL == "" {
		return "/dashboard"
	}
	return backURL
}
