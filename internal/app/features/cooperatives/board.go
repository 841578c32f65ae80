// internal/app/features/cooperatives/board.go
package cooperatives

import (
	"context"
	"strings"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// API is the slice of the API client the board needs.
type API interface {
	ListCooperatives(ctx context.Context, f apiclient.ListFilter) ([]models.Cooperative, error)
	CreateCooperative(ctx context.Context, in models.NewCooperative) (models.Cooperative, error)
	ApproveCooperative(ctx context.Context, id string) (models.Approval, error)
}

// Board is the screen's local copy of the cooperative list. After a
// successful create or approve it is patched in place instead of being
// refetched; a failed call leaves it untouched.
type Board struct {
	api   API
	items []models.Cooperative
}

// NewBoard returns an empty board bound to api.
func NewBoard(api API) *Board {
	return &Board{api: api}
}

// Load replaces the cache with the API's list. On error the cache is kept.
func (b *Board) Load(ctx context.Context) error {
	items, err := b.api.ListCooperatives(ctx, apiclient.ListFilter{})
	if err != nil {
		return err
	}
	b.items = items
	return nil
}

// Items returns a copy of the cache in its current order.
func (b *Board) Items() []models.Cooperative {
	return append([]models.Cooperative(nil), b.items...)
}

// Len is the number of cached cooperatives, before filtering.
func (b *Board) Len() int { return len(b.items) }

// Find looks a cooperative up by id.
func (b *Board) Find(id string) (models.Cooperative, bool) {
	for _, c := range b.items {
		if c.ID == id {
			return c, true
		}
	}
	return models.Cooperative{}, false
}

// Filter returns the cooperatives whose name or district contains q
// (case- and accent-insensitive) and, when status is set, whose status
// equals it. An empty q matches everything.
func (b *Board) Filter(q string, status models.CooperativeStatus) []models.Cooperative {
	needle := text.Fold(strings.TrimSpace(q))
	out := make([]models.Cooperative, 0, len(b.items))
	for _, c := range b.items {
		if status != "" && c.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(text.Fold(c.Name), needle) &&
			!strings.Contains(text.Fold(c.District), needle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Create submits in and appends the server's record to the end of the cache.
func (b *Board) Create(ctx context.Context, in models.NewCooperative) (models.Cooperative, error) {
	c, err := b.api.CreateCooperative(ctx, in)
	if err != nil {
		return models.Cooperative{}, err
	}
	b.items = append(b.items, c)
	return c, nil
}

// Approve approves id and patches that entry's status and registration
// number. Other entries and the order are unchanged. An id missing from the
// cache is still approved upstream; the cache just has nothing to patch.
func (b *Board) Approve(ctx context.Context, id string) (models.Approval, error) {
	res, err := b.api.ApproveCooperative(ctx, id)
	if err != nil {
		return models.Approval{}, err
	}
	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		reg := res.RegistrationNumber
		b.items[i].Status = models.StatusApproved
		b.items[i].RegistrationNumber = &reg
	}
	return res, nil
}
