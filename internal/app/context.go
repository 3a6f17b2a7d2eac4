package app

import (
	"context"
	"fmt"

	"vowline/internal/repo"
)

// ResolveWedding picks the active wedding: the explicit override when
// given, otherwise the workspace's single wedding. Several weddings with
// no override is an error the caller surfaces to the user.
func ResolveWedding(ctx context.Context, weddingOverride string, r repo.Repo) (string, error) {
	if weddingOverride != "" {
		if _, err := r.GetWedding(ctx, weddingOverride); err != nil {
			return "", fmt.Errorf("wedding %s: %w", weddingOverride, err)
		}
		return weddingOverride, nil
	}
	w, err := r.SingleWedding(ctx)
	if err != nil {
		return "", fmt.Errorf("wedding not specified; use --wedding (%w)", err)
	}
	return w.ID, nil
}
