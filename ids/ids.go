// Package ids generates random numeric identifiers with collision checking.
// The existence check is injected so the generator stays independent of any
// particular store.
package ids

import (
	"context"
	"math/rand"

	goerrors "github.com/goliatone/go-errors"
)

// ExistsFunc reports whether a candidate ID is already taken.
type ExistsFunc func(ctx context.Context, id int64) (bool, error)

// Generator produces unique random int64 IDs within [Min, Max].
type Generator struct {
	Min         int64
	Max         int64
	MaxAttempts int
	Exists      ExistsFunc
}

// NewGenerator validates the range and returns a Generator.
func NewGenerator(min, max int64, maxAttempts int, exists ExistsFunc) (*Generator, error) {
	if min <= 0 || max <= min {
		return nil, goerrors.New("invalid ID range", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"min": min, "max": max})
	}
	if maxAttempts <= 0 {
		return nil, goerrors.New("maxAttempts must be positive", goerrors.CategoryBadInput)
	}
	if exists == nil {
		return nil, goerrors.New("exists predicate is required", goerrors.CategoryBadInput)
	}

	return &Generator{
		Min:         min,
		Max:         max,
		MaxAttempts: maxAttempts,
		Exists:      exists,
	}, nil
}

// Generate draws random candidates in range until one is free, retrying a
// bounded number of times. A saturated space fails loudly instead of looping.
func (g *Generator) Generate(ctx context.Context) (int64, error) {
	for i := 0; i < g.MaxAttempts; i++ {
		select {
		case <-ctx.Done():
			return 0, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during ID generation")
		default:
		}

		candidate := g.Min + rand.Int63n(g.Max-g.Min+1)

		taken, err := g.Exists(ctx, candidate)
		if err != nil {
			return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "ID existence check failed")
		}
		if !taken {
			return candidate, nil
		}
	}

	return 0, goerrors.New("could not generate unique ID", goerrors.CategoryOperation).
		WithTextCode("ID_SPACE_EXHAUSTED").
		WithMetadata(map[string]any{"attempts": g.MaxAttempts})
}
