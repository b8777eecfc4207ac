package db

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/rdxrw/internal/models"
)

// SignatureCount is the number of candidates seen with one decay signature.
type SignatureCount struct {
	Label string
	Count int64
}

// RecordSignatures adds counts, keyed by signature key, to the stored
// frequencies. A write that hits a transaction conflict is retried once.
func (c *Client) RecordSignatures(ctx context.Context, counts map[string]SignatureCount) error {
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		sc := counts[key]
		err := c.addSignature(ctx, key, sc)
		if errors.Is(err, ErrTransactionConflict) {
			err = c.addSignature(ctx, key, sc)
		}
		if err != nil {
			return fmt.Errorf("record signature %s: %w", key, err)
		}
	}
	return nil
}

func (c *Client) addSignature(ctx context.Context, key string, sc SignatureCount) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("decay_signature", $key) SET
			label = $label,
			count += $count,
			updated = time::now()
	`, map[string]any{"key": key, "label": sc.Label, "count": sc.Count})
	return wrapQueryError(err)
}

// TopSignatures returns the limit most frequent signatures.
func (c *Client) TopSignatures(ctx context.Context, limit int) ([]models.DecaySignature, error) {
	results, err := surrealdb.Query[[]models.DecaySignature](ctx, c.db, `
		SELECT * FROM decay_signature ORDER BY count DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("top signatures: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.DecaySignature{}, nil
	}
	return (*results)[0].Result, nil
}
