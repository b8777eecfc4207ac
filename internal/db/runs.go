package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/rdxrw/internal/models"
)

// CreateRun records a new pending run.
func (c *Client) CreateRun(ctx context.Context, in models.RunInput) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE type::record("run", $id) CONTENT {
			input: $input,
			tree: $tree,
			output: $output,
			status: "pending",
			total: $total,
			started_at: time::now()
		}
	`, map[string]any{
		"id":     in.ID,
		"input":  in.Input,
		"tree":   in.Tree,
		"output": in.Output,
		"total":  in.Total,
	})
	if err != nil {
		return fmt.Errorf("create run %s: %w", in.ID, wrapQueryError(err))
	}
	return nil
}

// UpdateRunStatus sets the status of a run.
func (c *Client) UpdateRunStatus(ctx context.Context, id, status string) error {
	return c.updateRun(ctx, id, "status = $status", map[string]any{"status": status})
}

// UpdateRunProgress stores the number of processed candidates and marks the
// run as running.
func (c *Client) UpdateRunProgress(ctx context.Context, id string, progress int64) error {
	return c.updateRun(ctx, id, `status = "running", progress = $progress`, map[string]any{"progress": progress})
}

// CompleteRun marks a run as completed with its final counters.
func (c *Client) CompleteRun(ctx context.Context, id string, seen, weighted int64) error {
	return c.updateRun(ctx, id, `
		status = "completed",
		progress = $seen,
		seen = $seen,
		weighted = $weighted,
		completed_at = time::now()
	`, map[string]any{"seen": seen, "weighted": weighted})
}

// FailRun marks a run as failed.
func (c *Client) FailRun(ctx context.Context, id, msg string) error {
	return c.updateRun(ctx, id, `
		status = "failed",
		error = $error,
		completed_at = time::now()
	`, map[string]any{"error": msg})
}

func (c *Client) updateRun(ctx context.Context, id, set string, vars map[string]any) error {
	vars["id"] = id
	results, err := surrealdb.Query[[]models.Run](ctx, c.db,
		`UPDATE type::record("run", $id) SET `+set+` RETURN AFTER`, vars)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("update run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun returns the run with the given id.
func (c *Client) GetRun(ctx context.Context, id string) (*models.Run, error) {
	results, err := surrealdb.Query[[]models.Run](ctx, c.db, `
		SELECT * FROM type::record("run", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// ListRuns returns up to limit runs, most recent first. An empty status
// lists runs in any state.
func (c *Client) ListRuns(ctx context.Context, status string, limit int) ([]models.Run, error) {
	where := ""
	vars := map[string]any{"limit": limit}
	if status != "" {
		where = "WHERE status = $status"
		vars["status"] = status
	}

	results, err := surrealdb.Query[[]models.Run](ctx, c.db, fmt.Sprintf(`
		SELECT * FROM run %s ORDER BY started_at DESC LIMIT $limit
	`, where), vars)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Run{}, nil
	}
	return (*results)[0].Result, nil
}
