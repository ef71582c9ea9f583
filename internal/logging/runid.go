package logging

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// FieldRunID is the log field carrying the run identifier.
const FieldRunID = "run_id"

type runIDKey struct{}

// NewRunID returns a new lexically sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// ContextWithRunID attaches id to ctx.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run ID stored in ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// GetOrGenerateRunID returns the run ID in ctx or a new one.
func GetOrGenerateRunID(ctx context.Context) string {
	if id, ok := RunIDFromContext(ctx); ok {
		return id
	}
	return NewRunID()
}
