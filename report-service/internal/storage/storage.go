// Package storage issues presigned upload URLs for report media and, in
// local mode, stores the uploaded objects itself.
package storage

import (
	"context"
	"time"
)

// Presigner returns a URL that accepts a single PUT of key with the given
// content type until ttl passes.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}
