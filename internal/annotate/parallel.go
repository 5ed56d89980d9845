package annotate

import (
	"context"
	"sync"

	"github.com/oncoatlas/brcascan/internal/catalog"
)

// DefaultWorkers bounds concurrent registry lookups.
const DefaultWorkers = 4

// resolveItem is one catalog hit queued for resolution.
type resolveItem struct {
	seq   int
	entry catalog.Entry
}

// resolveResult is the annotation for a single hit.
type resolveResult struct {
	seq int
	ann ClinicalAnnotation
}

// ResolveAll resolves the identifier of every hit using a pool of workers
// and returns the annotations in hit order. All hits are passed as
// candidates so each can fall back on its own curated interpretation.
// If workers is 0, DefaultWorkers is used.
func (r *Resolver) ResolveAll(ctx context.Context, hits []catalog.Entry, workers int) []ClinicalAnnotation {
	if len(hits) == 0 {
		return []ClinicalAnnotation{}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, len(hits))

	items := make(chan resolveItem, len(hits))
	for i, h := range hits {
		items <- resolveItem{seq: i, entry: h}
	}
	close(items)

	results := make(chan resolveResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- resolveResult{
					seq: item.seq,
					ann: r.Resolve(ctx, item.entry.Identifier(), hits),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]ClinicalAnnotation, len(hits))
	for res := range results {
		out[res.seq] = res.ann
	}
	return out
}
