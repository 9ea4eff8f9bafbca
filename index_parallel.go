package rfscope

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/rfscope/internal/libspec"
	"github.com/jward/rfscope/internal/store"
)

// indexSpecsParallel indexes spec files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, delete old rows, insert placeholder rows.
//	Phase B (parallel): Parse each spec into its own BatchedStore.
//	Phase C (serial):   Commit batches to SQLite.
func (ix *Index) indexSpecsParallel(ctx context.Context, paths []string) error {
	// ---- Phase A: Serial preparation ----
	var items []specItem
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			for _, item := range items {
				ix.discard(ctx, item)
			}
			return fmt.Errorf("rfscope: index: %w", err)
		}
		item, skip, err := ix.prepareSpec(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return joinIndexErrors("parallel indexing", errs)
	}

	// ---- Phase B: Parallel parsing ----
	numWorkers := runtime.NumCPU()
	if ix.workers > 0 {
		numWorkers = ix.workers
	}
	numWorkers = max(1, min(numWorkers, len(items)))

	workCh := make(chan specItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item  specItem
		batch *store.BatchedStore
		err   error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				batch, err := parseSpec(ctx, item)
				resultCh <- result{item: item, batch: batch, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	for res := range resultCh {
		if res.err != nil {
			ix.discard(ctx, res.item)
			errs = append(errs, fmt.Errorf("parse %s: %w", res.item.path, res.err))
			continue
		}
		if err := ix.store.CommitBatch(res.batch); err != nil {
			ix.discard(ctx, res.item)
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rfscope: index: %w", err)
	}
	return joinIndexErrors("parallel indexing", errs)
}

// parseSpec is the Phase B work for one file.
func parseSpec(ctx context.Context, item specItem) (*store.BatchedStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lib, err := libspec.BuildFromBytes(ctx, item.path, item.content)
	if err != nil {
		return nil, err
	}
	batch := store.NewBatchedStore()
	if err := writeLibrary(batch, item.row, lib); err != nil {
		return nil, err
	}
	return batch, nil
}
