package cooperatives

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/domain/models"
)

type stubAPI struct {
	list       []models.Cooperative
	created    models.Cooperative
	approval   models.Approval
	err        error
	approvedID string
}

func (s *stubAPI) ListCooperatives(context.Context, apiclient.ListFilter) ([]models.Cooperative, error) {
	return s.list, s.err
}

func (s *stubAPI) CreateCooperative(_ context.Context, in models.NewCooperative) (models.Cooperative, error) {
	if s.err != nil {
		return models.Cooperative{}, s.err
	}
	return s.created, nil
}

func (s *stubAPI) ApproveCooperative(_ context.Context, id string) (models.Approval, error) {
	s.approvedID = id
	return s.approval, s.err
}

func seed() []models.Cooperative {
	return []models.Cooperative{
		{ID: "1", Name: "Abahizi Dairy", District: "Gasabo", Status: models.StatusPending},
		{ID: "2", Name: "Koperative Ikawa", District: "Huye", Status: models.StatusApproved},
		{ID: "3", Name: "Café des Mille Collines", District: "Kigali", Status: models.StatusPending},
		{ID: "4", Name: "Tea Growers", District: "Nyamagabe", Status: models.StatusRejected},
	}
}

func loaded(t *testing.T, api *stubAPI) *Board {
	t.Helper()
	b := NewBoard(api)
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return b
}

func ids(cs []models.Cooperative) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestFilter_Composition(t *testing.T) {
	b := loaded(t, &stubAPI{list: seed()})

	tests := []struct {
		name   string
		q      string
		status models.CooperativeStatus
		want   []string
	}{
		{"everything", "", "", []string{"1", "2", "3", "4"}},
		{"name substring any case", "DAIRY", "", []string{"1"}},
		{"district substring", "hu", "", []string{"2"}},
		{"accent folded", "cafe", "", []string{"3"}},
		{"status only", "", models.StatusPending, []string{"1", "3"}},
		{"search and status", "a", models.StatusPending, []string{"1", "3"}},
		{"search excludes by status", "ikawa", models.StatusPending, []string{}},
		{"whitespace query", "   ", models.StatusRejected, []string{"4"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(b.Filter(tc.q, tc.status))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Filter(%q, %q) = %v, want %v", tc.q, tc.status, got, tc.want)
			}
		})
	}
}

// Filtering with both criteria equals the intersection of each alone.
func TestFilter_IsIntersection(t *testing.T) {
	b := loaded(t, &stubAPI{list: seed()})
	for _, q := range []string{"", "a", "ga", "tea", "zz"} {
		for _, st := range append([]models.CooperativeStatus{""}, models.Statuses...) {
			both := map[string]bool{}
			for _, id := range ids(b.Filter(q, st)) {
				both[id] = true
			}
			byQ := map[string]bool{}
			for _, id := range ids(b.Filter(q, "")) {
				byQ[id] = true
			}
			for _, id := range ids(b.Filter("", st)) {
				if byQ[id] != both[id] {
					t.Fatalf("q=%q status=%q: id %s intersection mismatch", q, st, id)
				}
			}
			if len(both) > len(byQ) {
				t.Fatalf("q=%q status=%q: combined wider than search alone", q, st)
			}
		}
	}
}

func TestApprove_PatchesOnlyTarget(t *testing.T) {
	api := &stubAPI{list: seed(), approval: models.Approval{RegistrationNumber: "RW-GAS-2026-00000001"}}
	b := loaded(t, api)
	before := b.Items()

	if _, err := b.Approve(context.Background(), "1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	after := b.Items()
	if len(after) != len(before) {
		t.Fatalf("length changed: %d -> %d", len(before), len(after))
	}
	for i := range after {
		if after[i].ID != before[i].ID {
			t.Fatalf("order changed at %d", i)
		}
		if after[i].ID == "1" {
			if after[i].Status != models.StatusApproved || after[i].RegNumber() != "RW-GAS-2026-00000001" {
				t.Fatalf("target not patched: %+v", after[i])
			}
			continue
		}
		if !reflect.DeepEqual(after[i], before[i]) {
			t.Fatalf("entry %s changed", after[i].ID)
		}
	}
}

func TestApprove_FailureLeavesCacheUntouched(t *testing.T) {
	api := &stubAPI{list: seed()}
	b := loaded(t, api)
	before := b.Items()

	api.err = &apiclient.Error{Status: 403, Detail: "Not authorized"}
	if _, err := b.Approve(context.Background(), "1"); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(b.Items(), before) {
		t.Fatal("cache changed on failure")
	}
}

func TestCreate_AppendsAtEnd(t *testing.T) {
	api := &stubAPI{list: seed(), created: models.Cooperative{ID: "5", Name: "New", Status: models.StatusPending}}
	b := loaded(t, api)

	if _, err := b.Create(context.Background(), models.NewCooperative{Name: "New"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got := ids(b.Items())
	if want := []string{"1", "2", "3", "4", "5"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}

	api.err = errors.New("boom")
	if _, err := b.Create(context.Background(), models.NewCooperative{Name: "Other"}); err == nil {
		t.Fatal("expected error")
	}
	if b.Len() != 5 {
		t.Fatalf("failed create changed the cache: %d", b.Len())
	}
}

func TestLoad_ErrorKeepsCache(t *testing.T) {
	api := &stubAPI{list: seed()}
	b := loaded(t, api)
	api.err = errors.New("offline")
	if err := b.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if b.Len() != 4 {
		t.Fatal("cache dropped on failed load")
	}
}
