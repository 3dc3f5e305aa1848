package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yourorg/mcptime/pkg/metrics"
	"github.com/yourorg/mcptime/pkg/model"
)

// Repository errors
var (
	ErrInvocationExists = errors.New("invocation already recorded")
)

// DefaultListLimit bounds ListRecent when the caller passes a non-positive limit
const DefaultListLimit = 50

// MaxListLimit is the hard cap on a single ListRecent page
const MaxListLimit = 500

// InvocationRepository defines the interface for tool-call audit records
type InvocationRepository interface {
	Record(ctx context.Context, inv *model.Invocation) error
	ListRecent(ctx context.Context, limit int) ([]*model.Invocation, error)
	CountByTool(ctx context.Context) (map[string]int64, error)
}

// sqliteInvocationRepository implements InvocationRepository for SQLite
type sqliteInvocationRepository struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// NewInvocationRepository creates a new SQLite-backed invocation repository
func NewInvocationRepository(db *sql.DB, m *metrics.Metrics) InvocationRepository {
	return &sqliteInvocationRepository{
		db:      db,
		metrics: m,
	}
}

// Record inserts a new invocation audit record
func (r *sqliteInvocationRepository) Record(ctx context.Context, inv *model.Invocation) error {
	start := time.Now()
	operation := "record"

	// Validate the record
	if err := inv.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO invocations (id, tool, result_text, invoked_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		inv.ID,
		inv.Tool,
		inv.ResultText,
		inv.InvokedAt,
	)

	// Record metrics
	duration := time.Since(start).Seconds()
	r.metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)

	if err != nil {
		r.metrics.DBQueriesTotal.WithLabelValues(operation, "error").Inc()
		r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()

		// Check for unique constraint violation (SQLITE_CONSTRAINT)
		if isSQLiteConstraintError(err) {
			return ErrInvocationExists
		}
		return fmt.Errorf("failed to insert invocation: %w", err)
	}

	r.metrics.DBQueriesTotal.WithLabelValues(operation, "success").Inc()
	return nil
}

// ListRecent retrieves the most recent invocations, newest first
func (r *sqliteInvocationRepository) ListRecent(ctx context.Context, limit int) ([]*model.Invocation, error) {
	start := time.Now()
	operation := "list"

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
		SELECT id, tool, result_text, invoked_at
		FROM invocations
		ORDER BY invoked_at DESC, id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)

	// Record query duration
	duration := time.Since(start).Seconds()
	r.metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)

	if err != nil {
		r.metrics.DBQueriesTotal.WithLabelValues(operation, "error").Inc()
		r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var invocations []*model.Invocation
	for rows.Next() {
		var inv model.Invocation
		err := rows.Scan(
			&inv.ID,
			&inv.Tool,
			&inv.ResultText,
			&inv.InvokedAt,
		)
		if err != nil {
			r.metrics.DBQueriesTotal.WithLabelValues(operation, "error").Inc()
			r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		invocations = append(invocations, &inv)
	}

	if err := rows.Err(); err != nil {
		r.metrics.DBQueriesTotal.WithLabelValues(operation, "error").Inc()
		r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	// Return empty slice instead of nil for consistency
	if invocations == nil {
		invocations = []*model.Invocation{}
	}

	r.metrics.DBQueriesTotal.WithLabelValues(operation, "success").Inc()
	return invocations, nil
}

// CountByTool returns the number of recorded invocations per tool name
func (r *sqliteInvocationRepository) CountByTool(ctx context.Context) (map[string]int64, error) {
	start := time.Now()
	operation := "count"

	query := `
		SELECT tool, COUNT(*)
		FROM invocations
		GROUP BY tool
	`

	rows, err := r.db.QueryContext(ctx, query)

	duration := time.Since(start).Seconds()
	r.metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)

	if err != nil {
		r.metrics.DBQueriesTotal.WithLabelValues(operation, "error").Inc()
		r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("failed to count invocations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var tool string
		var count int64
		if err := rows.Scan(&tool, &count); err != nil {
			r.metrics.DBQueriesTotal.WithLabelValues(operation, "error").Inc()
			r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[tool] = count
	}

	if err := rows.Err(); err != nil {
		r.metrics.DBQueriesTotal.WithLabelValues(operation, "error").Inc()
		r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	r.metrics.DBQueriesTotal.WithLabelValues(operation, "success").Inc()
	return counts, nil
}

// isSQLiteConstraintError checks if an error is a SQLite constraint violation
// modernc.org/sqlite returns error strings containing "UNIQUE constraint"
func isSQLiteConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return containsSubstring(err.Error(), "UNIQUE constraint") ||
		containsSubstring(err.Error(), "constraint failed")
}

// containsSubstring is a simple substring search
func containsSubstring(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
