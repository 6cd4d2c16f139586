// Package resource bounds the resources an ingestion run may use.
//
// A Controller combines a weighted semaphore for in-flight provider calls,
// a token bucket for the provider request rate, a memory budget for the
// text of documents being processed and a byte-rate limit for index writes.
package resource
