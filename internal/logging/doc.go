// Package logging builds the zerolog loggers used by batchrun and carries them
// through context.Context, together with the ULID that identifies a run.
package logging
