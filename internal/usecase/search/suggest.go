package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/triage/internal/domain"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
)

// MaxSuggestLimit caps autocomplete results.
const MaxSuggestLimit = 50

// Suggest returns distinct values of one field that contain partial, ascending.
// Unknown field names resolve to specialty unless strict autocomplete is enabled.
func (s *Service) Suggest(ctx context.Context, partial, fieldName string, limit int) ([]string, error) {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return nil, fmt.Errorf("%w: partial text is required", domain.ErrInvalidRequest)
	}
	if limit <= 0 || limit > MaxSuggestLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, MaxSuggestLimit)
	}
	f, err := field.Parse(fieldName, s.strict)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	values, err := s.repo.Suggest(ctx, f, partial, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest %s: %w", f, err)
	}
	if len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}
