package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Prober is the part of the API client the health check needs.
type Prober interface {
	Health(ctx context.Context) (apiclient.HealthStatus, error)
	BaseURL() string
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	API Prober
	Log *zap.Logger
}

// NewHandler constructs a health Handler with the API client and logger.
func NewHandler(api Prober, logger *zap.Logger) *Handler {
	return &Handler{
		API: api,
		Log: logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
	API      string `json:"api"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "upstream":"healthy", "api":"http://localhost:8001", "message":"…" }
//
// When the API is unreachable or unhealthy: 503 and
//
//	{ "status":"error", "upstream":"unreachable", "message":"API unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{Status: "ok", API: h.API.BaseURL()}

	st, err := h.API.Health(ctx)
	if err != nil {
		h.Log.Error("health-check: api probe failed", zap.String("api", resp.API), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Upstream = "unreachable"
		resp.Message = "API unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	resp.Upstream = st.Status
	resp.Message = st.Message
	_ = json.NewEncoder(w).Encode(resp)
}
