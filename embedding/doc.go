// Package embedding groups segments into batches and maps them to vectors
// through a Provider.
//
// A Batcher never retries. Every provider failure, timeout or malformed
// response is reported as a BatchError attributing the failure to every
// segment of the batch; callers decide whether to try again.
//
// # Example
//
//	b, err := embedding.New(provider, func(o *embedding.Options) {
//	    o.BatchSize = 16
//	    o.Timeout = 30 * time.Second
//	})
//	b.Dispatch(chunker.Segments(doc), 4, func(n int, batch []model.Segment) {
//	    if r := b.EmbedBatch(ctx, n, batch); r.Err != nil {
//	        // batch failed
//	    }
//	})
package embedding
