// internal/app/features/dashboard/stats.go
package dashboard

import "github.com/dalemusser/coophub/internal/domain/models"

// CooperativeStats are the headline counts on the dashboard.
type CooperativeStats struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

// MemberStats and MeetingStats have no API behind them yet and are always
// zero.
type MemberStats struct {
	Total  int
	Active int
}

type MeetingStats struct {
	Upcoming  int
	ThisMonth int
}

// Count tallies cooperatives by status. Unknown statuses count toward the
// total only.
func Count(coops []models.Cooperative) CooperativeStats {
	s := CooperativeStats{Total: len(coops)}
	for _, c := range coops {
		switch c.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusApproved:
			s.Approved++
		case models.StatusRejected:
			s.Rejected++
		}
	}
	return s
}
