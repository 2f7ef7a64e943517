package html2pdf

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Request is one document in a batch.
type Request struct {
	HTML    string
	Options *Options // nil uses the converter's default options
}

// Result holds the outcome of one batch item: PDF on success, Err otherwise.
type Result struct {
	PDF []byte
	Err error
}

// ConvertBatch converts every request with bounded parallelism and returns
// the PDFs in input order. It is all-or-nothing: the first failure cancels
// the remaining items and the whole call returns that error, naming the
// failing index. Invalid items are rejected before any conversion starts.
func (c *Converter) ConvertBatch(ctx context.Context, reqs []Request) ([][]byte, error) {
	for i, req := range reqs {
		if _, err := c.prepare(req.HTML, req.Options); err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	if len(reqs) == 0 {
		return [][]byte{}, nil
	}

	pdfs := make([][]byte, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(c.workers, len(reqs)))

	for i, req := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			pdf, err := c.Convert(gctx, req.HTML, req.Options)
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			pdfs[i] = pdf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Cancellation stops the loop above without an item error; a nil entry
	// marks an item that never ran.
	for _, pdf := range pdfs {
		if pdf == nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			break
		}
	}
	return pdfs, nil
}

// ConvertBatchResults converts every request with bounded parallelism and
// reports each outcome separately, in input order. A failing item does not
// affect the others.
func (c *Converter) ConvertBatchResults(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	jobs := make(chan int, len(reqs))
	for i := range reqs {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range min(c.workers, len(reqs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i] = Result{Err: err}
					continue
				}
				pdf, err := c.Convert(ctx, reqs[i].HTML, reqs[i].Options)
				results[i] = Result{PDF: pdf, Err: err}
			}
		}()
	}

	wg.Wait()
	return results
}
