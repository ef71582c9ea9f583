// Package batch runs a unit of work over a slice of items in fixed-size groups.
//
// Items inside a group run concurrently; groups run one after another, so at
// most BatchSize invocations are in flight at any instant. Key features:
//   - Per-attempt timeout with detached (not cancelled) losers by default
//   - Retry with linear or capped exponential backoff
//   - Optional pacing between groups
//   - Results kept in input order regardless of completion order
//   - Abort on the first permanent failure, or capture failures inline
//
// A timeout is logical: the engine stops waiting for the attempt, but the
// worker call keeps running unless Options.CancelOnTimeout is set and the
// worker honours its context.
package batch
