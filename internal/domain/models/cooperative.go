// internal/domain/models/cooperative.go
package models

import "time"

// CooperativeStatus tracks a cooperative through district review.
type CooperativeStatus string

const (
	StatusPending  CooperativeStatus = "pending"
	StatusApproved CooperativeStatus = "approved"
	StatusRejected CooperativeStatus = "rejected"
)

// Statuses lists every status in filter-menu order.
var Statuses = []CooperativeStatus{StatusPending, StatusApproved, StatusRejected}

// ParseStatus reports whether s names a known status. The empty string
// is not a status; callers treat it as "any".
func ParseStatus(s string) (CooperativeStatus, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Cooperative mirrors the API's cooperative record. The UI never owns
// these; it keeps a cached copy between API calls.
type Cooperative struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	RegistrationNumber *string           `json:"registration_number,omitempty"`
	Description        string            `json:"description"`
	District           string            `json:"district"`
	Sector             string            `json:"sector"`
	Cell               string            `json:"cell"`
	Village            string            `json:"village"`
	LeaderID           string            `json:"leader_id"`
	MembersCount       int               `json:"members_count"`
	Status             CooperativeStatus `json:"status"`
	CreatedAt          time.Time         `json:"created_at"`
	ApprovedAt         *time.Time        `json:"approved_at,omitempty"`
	ApprovedBy         *string           `json:"approved_by,omitempty"`
}

// RegNumber returns the registration number or "" before approval.
func (c Cooperative) RegNumber() string {
	if c.RegistrationNumber == nil {
		return ""
	}
	return *c.RegistrationNumber
}

// NewCooperative is the payload for POST /api/cooperatives.
type NewCooperative struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	District    string `json:"district"`
	Sector      string `json:"sector"`
	Cell        string `json:"cell"`
	Village     string `json:"village"`
	LeaderID    string `json:"leader_id"`
}

// Approval is the API's answer to PUT /api/cooperatives/{id}/approve.
type Approval struct {
	Message            string `json:"message"`
	RegistrationNumber string `json:"registration_number"`
}
