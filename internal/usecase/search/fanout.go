package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultWorkers is the fan-out pool size when none is configured.
const DefaultWorkers = 16

// FanOut embeds candidate texts concurrently on a process-wide worker pool.
type FanOut struct {
	pool *ants.Pool
}

// NewFanOut creates a pool with size workers.
func NewFanOut(size int) (*FanOut, error) {
	if size <= 0 {
		size = DefaultWorkers
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	return &FanOut{pool: pool}, nil
}

// Release stops the pool workers.
func (f *FanOut) Release() {
	f.pool.Release()
}

// EmbedAll returns one slot per text, nil where no vector was obtained.
// Identical texts are embedded once. Slots are index-addressed, so the
// result does not depend on completion order.
func (f *FanOut) EmbedAll(ctx context.Context, embed Embedder, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	positions := make(map[string][]int, len(texts))
	unique := make([]string, 0, len(texts))
	for i, t := range texts {
		if _, seen := positions[t]; !seen {
			unique = append(unique, t)
		}
		positions[t] = append(positions[t], i)
	}

	vecs := make([][]float32, len(unique))
	var wg sync.WaitGroup
	for i, text := range unique {
		if ctx.Err() != nil {
			break
		}
		task := func() {
			defer wg.Done()
			if v, ok := embed.Embed(ctx, text); ok {
				vecs[i] = v
			}
		}
		wg.Add(1)
		if err := f.pool.Submit(task); err != nil {
			// pool released or overloaded: embed on the caller goroutine
			task()
		}
	}
	wg.Wait()

	for i, text := range unique {
		for _, pos := range positions[text] {
			out[pos] = vecs[i]
		}
	}
	return out
}
