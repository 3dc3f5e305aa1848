package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/mcptime/internal/repository"
	"github.com/yourorg/mcptime/internal/testutil"
	"github.com/yourorg/mcptime/pkg/model"
)

// stubInvocationRepository serves canned audit records
type stubInvocationRepository struct {
	invocations []*model.Invocation
	listErr     error
	gotLimit    int
}

func (s *stubInvocationRepository) Record(_ context.Context, inv *model.Invocation) error {
	s.invocations = append(s.invocations, inv)
	return nil
}

func (s *stubInvocationRepository) ListRecent(_ context.Context, limit int) ([]*model.Invocation, error) {
	s.gotLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.invocations, nil
}

func (s *stubInvocationRepository) CountByTool(_ context.Context) (map[string]int64, error) {
	return nil, nil
}

var _ repository.InvocationRepository = (*stubInvocationRepository)(nil)

func TestListInvocations(t *testing.T) {
	repo := &stubInvocationRepository{
		invocations: []*model.Invocation{
			model.NewInvocation("time_now", "Текущее время: 15.01.2024 13:30:00"),
			model.NewInvocation("time_now", "Текущее время: 15.01.2024 13:30:05"),
		},
	}
	logger, _ := testutil.NewTestLogger()
	h := NewInvocationHandler(repo, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/invocations", nil)
	rec := httptest.NewRecorder()
	h.ListInvocations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body model.InvocationListResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if len(body.Invocations) != 2 {
		t.Errorf("invocations length = %d, want 2", len(body.Invocations))
	}
}

func TestListInvocationsLimit(t *testing.T) {
	repo := &stubInvocationRepository{}
	logger, _ := testutil.NewTestLogger()
	h := NewInvocationHandler(repo, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/invocations?limit=7", nil)
	rec := httptest.NewRecorder()
	h.ListInvocations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.gotLimit != 7 {
		t.Errorf("repository received limit %d, want 7", repo.gotLimit)
	}
}

func TestListInvocationsInvalidLimit(t *testing.T) {
	repo := &stubInvocationRepository{}
	logger, _ := testutil.NewTestLogger()
	h := NewInvocationHandler(repo, logger)

	for _, limit := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/invocations?limit="+limit, nil)
		rec := httptest.NewRecorder()
		h.ListInvocations(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestListInvocationsRepositoryError(t *testing.T) {
	repo := &stubInvocationRepository{listErr: errors.New("database gone")}
	logger, logHandler := testutil.NewTestLogger()
	h := NewInvocationHandler(repo, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/invocations", nil)
	rec := httptest.NewRecorder()
	h.ListInvocations(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	logHandler.AssertErrorCount(t, 1)
}
