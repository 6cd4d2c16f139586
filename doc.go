// Package ragindex builds a similarity index from a corpus of documents.
//
// A Pipeline splits every document into overlapping segments, embeds the
// segments in batches through an embedding.Provider and inserts each
// successful batch into a vector index. The index answers nearest-neighbour
// queries and is persisted to a self-describing file or blob.
//
// # Quick Start
//
//	provider, _ := hashing.New(256)
//	p, _ := ragindex.New(ragindex.DefaultConfig(), provider)
//
//	report, err := p.Ingest(ctx, dir.New("./docs"))
//	if err != nil {
//	    // cancelled; report holds what was done
//	}
//	fmt.Println(report.Indexed, report.Partial, report.Failed)
//
//	results, _ := p.QueryText(ctx, "how do I reset my password", 5, nil)
//	_ = p.Save(ctx, "./index.rix")
//
// Resume later without re-embedding:
//
//	p, _ := ragindex.Open(ctx, "./index.rix", provider, ragindex.DefaultConfig())
//
// # Failure Model
//
// Ingestion never aborts on a bad document. Each document ends in one of
// StateIndexed, StatePartiallyFailed or StateFailed; the Report lists every
// segment that was not indexed. A batch that fails is retried according to
// Config.Retry; a batch is inserted atomically or not at all.
//
// Persistence errors always propagate. They match ErrPersistenceIO for I/O
// failures and ErrCorruptIndexFile for files that fail verification.
//
// # Concurrency
//
// Documents are processed in parallel up to Config.DocumentConcurrency and
// the batches of one document up to Config.BatchConcurrency. Provider calls
// across the whole pipeline are bounded by Config.MaxConcurrentCalls and
// Config.CallsPerSecond. Queries may run at any time; Save waits for inserts
// in progress.
package ragindex
