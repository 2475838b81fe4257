package gosnip

import (
	"sync"
)

// BatchItem names one snippet to render in a batch.
type BatchItem struct {
	File string
	Vars map[string]string
}

// BatchResult is the outcome of rendering one BatchItem.
type BatchResult struct {
	File   string
	Result *RenderResult
	Err    error
}

// RenderBatch renders items beneath path using up to concurrency goroutines.
// Each item gets its own Snippet built from opts, so the engine, store,
// processors and recorder passed in opts must be safe for concurrent use.
// Results are returned in input order; a failed item does not stop the rest.
func RenderBatch(items []BatchItem, path string, concurrency int, opts ...Option) []BatchResult {
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		return results
	}
	if concurrency <= 0 || concurrency > len(items) {
		concurrency = len(items)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item BatchItem) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = renderItem(item, path, opts)
		}(i, item)
	}

	wg.Wait()
	return results
}

func renderItem(item BatchItem, path string, opts []Option) BatchResult {
	s, err := New(item.File, path, opts...)
	if err != nil {
		return BatchResult{File: item.File, Err: err}
	}
	result, err := s.AddVariables(item.Vars).RenderResult()
	return BatchResult{File: item.File, Result: result, Err: err}
}
