package store

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"opsdesk/internal/domain"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestInventoryInsertAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.InsertInventoryItem(ctx, domain.InventoryItem{
		Description: "Hoffman enclosure 24x24",
		Mfg:         "Hoffman",
		PN:          "A24N24ALP",
		Qty:         3,
		Type:        "panelbuild",
	})
	if err != nil {
		t.Fatalf("InsertInventoryItem: %v", err)
	}
	if item.ID == 0 {
		t.Error("inserted item has no id")
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}
	if item.TransmittalForm != "no" || item.ReturnNeeded != "no" {
		t.Errorf("defaults not applied: %+v", item)
	}

	if _, err := s.InsertInventoryItem(ctx, domain.InventoryItem{
		Description: "Allen Bradley PLC",
		Mfg:         "Allen Bradley",
		PN:          "1756-L83E",
	}); err != nil {
		t.Fatalf("InsertInventoryItem: %v", err)
	}

	// Case-insensitive substring match across description, mfg, pn.
	for _, search := range []string{"hoffman", "HOFFMAN", "a24n24"} {
		items, err := s.SearchInventory(ctx, search, 20)
		if err != nil {
			t.Fatalf("SearchInventory(%q): %v", search, err)
		}
		if len(items) != 1 || items[0].Mfg != "Hoffman" {
			t.Errorf("SearchInventory(%q) = %+v, want the Hoffman row", search, items)
		}
	}

	all, err := s.SearchInventory(ctx, "", 20)
	if err != nil {
		t.Fatalf("SearchInventory: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("empty search returned %d rows, want 2", len(all))
	}
}

func TestInventorySearchLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := s.InsertInventoryItem(ctx, domain.InventoryItem{
			Description: "widget",
		}); err != nil {
			t.Fatal(err)
		}
	}
	items, err := s.SearchInventory(ctx, "widget", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 20 {
		t.Errorf("len = %d, want 20", len(items))
	}
}

func TestInventoryPartialUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.InsertInventoryItem(ctx, domain.InventoryItem{
		Description: "VFD drive",
		Location:    "shelf A",
		Qty:         2,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.UpdateInventoryItem(ctx, item.ID, domain.InventoryPatch{
		Location: strPtr("shelf B"),
		Qty:      intPtr(5),
	})
	if err != nil {
		t.Fatalf("UpdateInventoryItem: %v", err)
	}
	if got.Location != "shelf B" || got.Qty != 5 {
		t.Errorf("patched fields wrong: %+v", got)
	}
	if got.Description != "VFD drive" {
		t.Errorf("untouched field changed: %q", got.Description)
	}

	// Idempotent: same patch leaves the same values.
	again, err := s.UpdateInventoryItem(ctx, item.ID, domain.InventoryPatch{
		Location: strPtr("shelf B"),
		Qty:      intPtr(5),
	})
	if err != nil {
		t.Fatal(err)
	}
	if again.Location != "shelf B" || again.Qty != 5 {
		t.Errorf("second patch changed values: %+v", again)
	}
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateInventoryItem(context.Background(), 9999, domain.InventoryPatch{
		Location: strPtr("nowhere"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateWithEmptyPatchIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.InsertInventoryItem(ctx, domain.InventoryItem{Description: "spare fuse", Location: "A1"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.UpdateInventoryItem(ctx, created.ID, domain.InventoryPatch{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Location != "A1" || !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("empty patch changed the row: %+v", got)
	}

	_, err = s.UpdateInventoryItem(ctx, 9999, domain.InventoryPatch{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestJobsSearchJoinsCustomerName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cust, err := s.InsertCustomer(ctx, domain.Customer{Name: "Acme Water District"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertJob(ctx, domain.Job{
		Title:      "Pump station retrofit",
		CustomerID: cust.ID,
		Status:     "in_progress",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertJob(ctx, domain.Job{Title: "Panel build"}); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.SearchJobs(ctx, "acme", "", 20)
	if err != nil {
		t.Fatalf("SearchJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len = %d, want 1", len(jobs))
	}
	if jobs[0].CustomerName != "Acme Water District" {
		t.Errorf("CustomerName = %q", jobs[0].CustomerName)
	}

	byStatus, err := s.SearchJobs(ctx, "", "in_progress", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(byStatus) != 1 || byStatus[0].Title != "Pump station retrofit" {
		t.Errorf("status filter = %+v", byStatus)
	}
}

func TestJobPartialUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.InsertJob(ctx, domain.Job{Title: "Conveyor install", EstimatedHours: 40})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.UpdateJob(ctx, job.ID, domain.JobPatch{Status: strPtr("completed")})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if got.Status != "completed" {
		t.Errorf("Status = %q", got.Status)
	}
	if got.EstimatedHours != 40 {
		t.Errorf("EstimatedHours changed: %v", got.EstimatedHours)
	}
}

func TestProspectLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.InsertProspect(ctx, domain.Prospect{Company: "Borden Dairy", ContactName: "Sam"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Stage != "lead" {
		t.Errorf("default stage = %q, want lead", p.Stage)
	}

	got, err := s.UpdateProspect(ctx, p.ID, domain.ProspectPatch{Stage: strPtr("quoted"), Priority: intPtr(2)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Stage != "quoted" || got.Priority != 2 {
		t.Errorf("update = %+v", got)
	}

	found, err := s.SearchProspects(ctx, "borden", "quoted", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Errorf("len = %d, want 1", len(found))
	}
}

func TestContactRequiresCustomer(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertContact(context.Background(), domain.Contact{CustomerID: 42, Name: "Jo"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubTaskBatchIsTransactional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.InsertJob(ctx, domain.Job{Title: "Site survey"})
	if err != nil {
		t.Fatal(err)
	}

	tasks, err := s.InsertSubTaskBatch(ctx, job.ID, []domain.SubTask{
		{Title: "Photograph panels"},
		{Title: "Measure conduit runs", Priority: "high"},
	})
	if err != nil {
		t.Fatalf("InsertSubTaskBatch: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2", len(tasks))
	}
	if tasks[0].Status != "pending" || tasks[1].Priority != "high" {
		t.Errorf("tasks = %+v", tasks)
	}

	if _, err := s.InsertSubTaskBatch(ctx, 9999, []domain.SubTask{{Title: "x"}}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing job err = %v, want ErrNotFound", err)
	}
}

func TestTeamAndAttendance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.InsertTeamMember(ctx, domain.TeamMember{Username: "maria", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.InsertAttendance(ctx, domain.AttendanceLog{
		UserID:  u.ID,
		CheckIn: mustParse(t, "2026-08-28T07:30:00Z"),
		Notes:   "jobsite 1182",
	}); err != nil {
		t.Fatal(err)
	}

	logs, err := s.ListAttendance(ctx, "MARIA", 50)
	if err != nil {
		t.Fatalf("ListAttendance: %v", err)
	}
	if len(logs) != 1 || logs[0].Username != "maria" {
		t.Errorf("logs = %+v", logs)
	}
	if logs[0].CheckOut != nil {
		t.Error("open shift should have nil check_out")
	}

	team, err := s.ListTeam(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(team) != 1 || team[0].Role != "admin" {
		t.Errorf("team = %+v", team)
	}
}

func TestTranscriptOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, 7, "inventory check")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("conversation id empty")
	}

	for _, m := range []struct{ role, content string }{
		{"user", "any hoffman in stock?"},
		{"assistant", "Yes, 3 enclosures."},
		{"user", "check one out to job 1182"},
	} {
		if err := s.AppendMessage(ctx, conv.ID, m.role, m.content); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	msgs, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].Content != "any hoffman in stock?" || msgs[2].Role != "user" {
		t.Errorf("ordering wrong: %+v", msgs)
	}

	convs, err := s.ListConversations(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].Title != "inventory check" {
		t.Errorf("convs = %+v", convs)
	}
}

func TestListAllConversationsJoinsOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.InsertTeamMember(ctx, domain.TeamMember{Username: "miker", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateConversation(ctx, member.ID, "morning check-in"); err != nil {
		t.Fatal(err)
	}
	// Owner without a directory entry still lists, with an empty name.
	if _, err := s.CreateConversation(ctx, 999, "orphaned"); err != nil {
		t.Fatal(err)
	}

	convs, err := s.ListAllConversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("len = %d, want 2", len(convs))
	}
	// Newest first.
	if convs[0].Title != "orphaned" || convs[0].OwnerName != "" {
		t.Errorf("convs[0] = %+v", convs[0])
	}
	if convs[1].OwnerName != "miker" {
		t.Errorf("convs[1] = %+v", convs[1])
	}
}

func TestUsageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.InsertUsage(ctx, domain.UsageRecord{
		UserID:       7,
		Model:        "claude-sonnet-4-20250514",
		InputTokens:  1000,
		OutputTokens: 500,
		CostUSD:      0.0105,
	})
	if err != nil {
		t.Fatalf("InsertUsage: %v", err)
	}

	recs, err := s.ListUsage(ctx, 7, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1", len(recs))
	}
	if recs[0].CostUSD != 0.0105 || recs[0].InputTokens != 1000 {
		t.Errorf("rec = %+v", recs[0])
	}
}
