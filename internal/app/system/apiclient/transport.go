package apiclient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requestIDTransport stamps every outgoing call with X-Request-ID and logs
// it, so a failing screen can be matched with the API's own logs.
type requestIDTransport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.log.Warn("api request failed",
			zap.String("request_id", id),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	t.log.Debug("api request",
		zap.String("request_id", id),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}
