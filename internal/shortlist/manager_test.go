package shortlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"carematch/internal/apperr"
	"carematch/internal/auth"
	"carematch/internal/models"
	"carematch/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store    *testutil.MemStore
	mgr      *Manager
	pin      *auth.Identity
	csr      *auth.Identity
	otherCSR *auth.Identity
	category *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	return &fixture{
		store:    store,
		mgr:      NewManager(store, nil),
		pin:      auth.IdentityOf(testutil.SeedAccount(t, store, "pin@example.com", models.RolePIN)),
		csr:      auth.IdentityOf(testutil.SeedAccount(t, store, "csr@example.com", models.RoleCSR)),
		otherCSR: auth.IdentityOf(testutil.SeedAccount(t, store, "csr2@example.com", models.RoleCSR)),
		category: testutil.SeedCategory(t, store, "Tutoring"),
	}
}

func TestAdd_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Need tutor", models.StatusOpen)

	added, err := f.mgr.Add(ctx, f.csr, r.ID)
	if err != nil || !added {
		t.Fatalf("Add() = %v, %v, want true, nil", added, err)
	}
	added, err = f.mgr.Add(ctx, f.csr, r.ID)
	if err != nil || added {
		t.Fatalf("Add() second = %v, %v, want false, nil", added, err)
	}

	page, err := f.mgr.List(ctx, f.csr, models.ShortlistFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.TotalCount != 1 || len(page.Items) != 1 || page.Items[0].ID != r.ID {
		t.Errorf("List() = %+v, want request %d exactly once", page.Items, r.ID)
	}

	got, _ := f.store.GetRequestByID(ctx, r.ID)
	if got.ShortlistCount != 1 {
		t.Errorf("shortlist_count = %d, want 1", got.ShortlistCount)
	}
}

func TestAdd_Concurrent(t *testing.T) {
	f := newFixture(t)
	r := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Need tutor", models.StatusOpen)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := f.mgr.Add(context.Background(), f.csr, r.ID)
			if err != nil {
				t.Errorf("Add() error = %v", err)
				return
			}
			results <- added
		}()
	}
	wg.Wait()
	close(results)

	inserted := 0
	for added := range results {
		if added {
			inserted++
		}
	}
	if inserted != 1 {
		t.Errorf("concurrent Add() inserted %d rows, want 1", inserted)
	}
}

func TestAdd_Rules(t *testing.T) {
	f := newFixture(t)
	draft := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Draft", models.StatusDraft)
	done := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Done", models.StatusCompleted)
	open := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Open", models.StatusOpen)

	tests := []struct {
		name      string
		actor     *auth.Identity
		requestID int64
		wantErr   error
	}{
		{"anonymous", nil, open.ID, apperr.ErrUnauthorized},
		{"pin cannot shortlist", f.pin, open.ID, apperr.ErrForbidden},
		{"missing request", f.csr, 9999, apperr.ErrNotFound},
		{"draft is hidden", f.csr, draft.ID, apperr.ErrNotFound},
		{"completed", f.csr, done.ID, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.mgr.Add(context.Background(), tt.actor, tt.requestID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Add() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Open", models.StatusOpen)
	f.mgr.Add(ctx, f.csr, r.ID)

	if err := f.mgr.Remove(ctx, f.otherCSR, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Remove() by other reviewer error = %v, want not found", err)
	}
	if err := f.mgr.Remove(ctx, f.csr, r.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := f.mgr.Remove(ctx, f.csr, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Remove() twice error = %v, want not found", err)
	}

	got, _ := f.store.GetRequestByID(ctx, r.ID)
	if got.ShortlistCount != 0 {
		t.Errorf("shortlist_count = %d, want 0", got.ShortlistCount)
	}
}

func TestList_OwnOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	groceries := testutil.SeedCategory(t, f.store, "Groceries")
	a := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "A", models.StatusOpen)
	b := testutil.SeedRequest(t, f.store, f.pin.AccountID, groceries.ID, "B", models.StatusOpen)
	f.mgr.Add(ctx, f.csr, a.ID)
	f.mgr.Add(ctx, f.csr, b.ID)
	f.mgr.Add(ctx, f.otherCSR, a.ID)

	page, _ := f.mgr.List(ctx, f.csr, models.ShortlistFilter{CSRID: f.otherCSR.AccountID})
	if page.TotalCount != 2 {
		t.Errorf("List() total = %d, want 2", page.TotalCount)
	}
	page, _ = f.mgr.List(ctx, f.csr, models.ShortlistFilter{CategoryID: &groceries.ID})
	if page.TotalCount != 1 || page.Items[0].ID != b.ID {
		t.Errorf("List(category) = %+v, want only request %d", page.Items, b.ID)
	}
}

func TestRecordMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Need tutor", models.StatusOpen)
	f.mgr.Add(ctx, f.csr, r.ID)

	if _, err := f.mgr.RecordMatch(ctx, f.pin, f.csr.AccountID, r.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("RecordMatch() on open request error = %v, want conflict", err)
	}

	done := models.StatusCompleted
	stored, _ := f.store.GetRequestByID(ctx, r.ID)
	stored.Status = done
	f.store.UpdateRequest(ctx, stored)

	if _, err := f.mgr.RecordMatch(ctx, f.pin, f.otherCSR.AccountID, r.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("RecordMatch() for non-shortlisting reviewer error = %v, want validation", err)
	}
	if _, err := f.mgr.RecordMatch(ctx, f.pin, f.pin.AccountID, r.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("RecordMatch() with pin as reviewer error = %v, want validation", err)
	}

	created, err := f.mgr.RecordMatch(ctx, f.pin, f.csr.AccountID, r.ID)
	if err != nil || !created {
		t.Fatalf("RecordMatch() = %v, %v, want true, nil", created, err)
	}
	created, err = f.mgr.RecordMatch(ctx, f.pin, f.csr.AccountID, r.ID)
	if err != nil || created {
		t.Fatalf("RecordMatch() repeat = %v, %v, want false, nil", created, err)
	}

	history, err := f.mgr.SearchHistory(ctx, f.csr, HistoryFilter{})
	if err != nil {
		t.Fatalf("SearchHistory() error = %v", err)
	}
	if history.TotalCount != 1 || history.Items[0].RequestTitle != "Need tutor" {
		t.Errorf("SearchHistory() = %+v, want one record", history.Items)
	}

	other, _ := f.mgr.SearchHistory(ctx, f.otherCSR, HistoryFilter{})
	if other.TotalCount != 0 {
		t.Errorf("SearchHistory() for other reviewer total = %d, want 0", other.TotalCount)
	}

	pinHistory, err := f.mgr.PinHistory(ctx, f.pin, HistoryFilter{CategoryID: &f.category.ID})
	if err != nil {
		t.Fatalf("PinHistory() error = %v", err)
	}
	if pinHistory.TotalCount != 1 {
		t.Errorf("PinHistory() total = %d, want 1", pinHistory.TotalCount)
	}
}

func TestRecordMatch_NotOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	intruder := auth.IdentityOf(testutil.SeedAccount(t, f.store, "intruder@example.com", models.RolePIN))
	r := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Done", models.StatusCompleted)

	if _, err := f.mgr.RecordMatch(ctx, intruder, f.csr.AccountID, r.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("RecordMatch() by non-owner error = %v, want forbidden", err)
	}
}

func TestSearchHistory_DateRange(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	_, err := f.mgr.SearchHistory(context.Background(), f.csr, HistoryFilter{From: &from, To: &to})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("SearchHistory() error = %v, want validation", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "A", models.StatusOpen)
	testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "B", models.StatusOpen)
	testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "C", models.StatusDraft)
	f.mgr.Add(ctx, f.csr, a.ID)

	stats, err := f.mgr.Stats(ctx, f.csr)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := models.ReviewerStats{OpenRequests: 2, Shortlisted: 1, Matches: 0}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}

type recordingNotifier struct {
	reviewers []int64
	requests  []int64
}

func (n *recordingNotifier) NotifyMatchRecorded(ctx context.Context, reviewer *models.Account, r *models.Request) {
	n.reviewers = append(n.reviewers, reviewer.ID)
	n.requests = append(n.requests, r.ID)
}

func TestRecordMatch_Notifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	f.mgr.SetNotifier(notifier)

	r := testutil.SeedRequest(t, f.store, f.pin.AccountID, f.category.ID, "Need tutor", models.StatusOpen)
	f.mgr.Add(ctx, f.csr, r.ID)
	stored, _ := f.store.GetRequestByID(ctx, r.ID)
	stored.Status = models.StatusCompleted
	f.store.UpdateRequest(ctx, stored)

	for i := 0; i < 2; i++ {
		if _, err := f.mgr.RecordMatch(ctx, f.pin, f.csr.AccountID, r.ID); err != nil {
			t.Fatalf("RecordMatch() error = %v", err)
		}
	}

	// only the first, created, record notifies
	if len(notifier.reviewers) != 1 || notifier.reviewers[0] != f.csr.AccountID || notifier.requests[0] != r.ID {
		t.Errorf("notifications = %v/%v, want one for csr %d on request %d", notifier.reviewers, notifier.requests, f.csr.AccountID, r.ID)
	}
}
