package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourorg/mcptime/pkg/metrics"
	"github.com/yourorg/mcptime/pkg/model"
)

// metrics.New registers into the default Prometheus registry, so create
// the test bundle once for the whole package
var (
	testMetricsOnce sync.Once
	testMetrics     *metrics.Metrics
)

func newTestMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.New("repository_test")
	})
	return testMetrics
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE invocations (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			result_text TEXT NOT NULL DEFAULT '',
			invoked_at TIMESTAMP NOT NULL
		);
		CREATE INDEX idx_invocations_invoked_at ON invocations (invoked_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

func newTestRepository(t *testing.T) InvocationRepository {
	t.Helper()
	return NewInvocationRepository(newTestDB(t), newTestMetrics())
}

func TestRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	inv := model.NewInvocation("time_now", "Текущее время: 15.01.2024 13:30:00")
	if err := repo.Record(ctx, inv); err != nil {
		t.Fatalf("Record() returned error: %v", err)
	}

	got, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListRecent() returned %d records, want 1", len(got))
	}
	if got[0].ID != inv.ID {
		t.Errorf("ID = %s, want %s", got[0].ID, inv.ID)
	}
	if got[0].Tool != "time_now" {
		t.Errorf("Tool = %s, want time_now", got[0].Tool)
	}
	if got[0].ResultText != inv.ResultText {
		t.Errorf("ResultText = %q, want %q", got[0].ResultText, inv.ResultText)
	}
}

func TestRecordDuplicateID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	inv := model.NewInvocation("time_now", "first")
	if err := repo.Record(ctx, inv); err != nil {
		t.Fatalf("Record() returned error: %v", err)
	}

	dup := &model.Invocation{
		ID:        inv.ID,
		Tool:      "time_now",
		InvokedAt: time.Now().UTC(),
	}
	err := repo.Record(ctx, dup)
	if err != ErrInvocationExists {
		t.Errorf("Record() duplicate = %v, want ErrInvocationExists", err)
	}
}

func TestRecordInvalid(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		invocation *model.Invocation
	}{
		{
			name: "missing id",
			invocation: &model.Invocation{
				Tool:      "time_now",
				InvokedAt: time.Now().UTC(),
			},
		},
		{
			name: "missing tool",
			invocation: &model.Invocation{
				ID:        "id-1",
				InvokedAt: time.Now().UTC(),
			},
		},
		{
			name: "zero invoked_at",
			invocation: &model.Invocation{
				ID:   "id-2",
				Tool: "time_now",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Record(ctx, tt.invocation); err == nil {
				t.Error("Record() = nil, want validation error")
			}
		})
	}
}

func TestListRecentOrdering(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		inv := model.NewInvocation("time_now", "result")
		inv.InvokedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Record(ctx, inv); err != nil {
			t.Fatalf("Record() returned error: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListRecent() returned %d records, want 3", len(got))
	}

	// Newest first
	for i := 1; i < len(got); i++ {
		if got[i].InvokedAt.After(got[i-1].InvokedAt) {
			t.Errorf("records out of order: index %d (%v) is newer than index %d (%v)",
				i, got[i].InvokedAt, i-1, got[i-1].InvokedAt)
		}
	}
}

func TestListRecentLimits(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Record(ctx, model.NewInvocation("time_now", "result")); err != nil {
			t.Fatalf("Record() returned error: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListRecent(2) returned %d records, want 2", len(got))
	}

	// Non-positive limit falls back to the default
	got, err = repo.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent() returned error: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("ListRecent(0) returned %d records, want 5", len(got))
	}
}

func TestListRecentEmpty(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	got, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() returned error: %v", err)
	}
	if got == nil {
		t.Error("ListRecent() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("ListRecent() returned %d records, want 0", len(got))
	}
}

func TestCountByTool(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Record(ctx, model.NewInvocation("time_now", "result")); err != nil {
			t.Fatalf("Record() returned error: %v", err)
		}
	}

	counts, err := repo.CountByTool(ctx)
	if err != nil {
		t.Fatalf("CountByTool() returned error: %v", err)
	}
	if counts["time_now"] != 3 {
		t.Errorf("counts[time_now] = %d, want 3", counts["time_now"])
	}
}
