package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dalemusser/coophub/internal/domain/models"
)

// ListFilter narrows GET /api/cooperatives on the server side. The API
// already scopes results to the caller; these are optional extras.
type ListFilter struct {
	District string
	Status   models.CooperativeStatus
}

func (f ListFilter) query() string {
	v := url.Values{}
	if f.District != "" {
		v.Set("district", f.District)
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ListCooperatives returns the cooperatives visible to the caller.
func (c *Client) ListCooperatives(ctx context.Context, f ListFilter) ([]models.Cooperative, error) {
	var out []models.Cooperative
	if err := c.Do(ctx, http.MethodGet, "/api/cooperatives"+f.query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCooperative submits a new cooperative for review.
func (c *Client) CreateCooperative(ctx context.Context, in models.NewCooperative) (models.Cooperative, error) {
	var out models.Cooperative
	if err := c.Do(ctx, http.MethodPost, "/api/cooperatives", in, &out); err != nil {
		return models.Cooperative{}, err
	}
	return out, nil
}

// ApproveCooperative approves a pending cooperative and returns the
// registration number the API assigned.
func (c *Client) ApproveCooperative(ctx context.Context, id string) (models.Approval, error) {
	var out models.Approval
	path := fmt.Sprintf("/api/cooperatives/%s/approve", url.PathEscape(id))
	if err := c.Do(ctx, http.MethodPut, path, nil, &out); err != nil {
		return models.Approval{}, err
	}
	return out, nil
}

// HealthStatus is the API's /api/health body.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health probes the API. It needs no credentials.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	if err := c.Do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return HealthStatus{}, err
	}
	return out, nil
}
