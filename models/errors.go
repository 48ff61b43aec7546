package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors, related to default API status codes
var (
	// BadParameterError is rendered with the http status code 400
	BadParameterError = errors.New("bad parameter")

	// NotFoundError is rendered with the http status code 404
	NotFoundError = errors.New("not found")

	// ConflictError is rendered with the http status code 409
	ConflictError = errors.New("duplicate value")
)

// Import pipeline errors
var (
	// SchemaMismatchError is the fatal validation error raised when a file's
	// header shares no column with the destination table. The destination is
	// guaranteed untouched when an import fails with it.
	SchemaMismatchError = errors.Wrap(BadParameterError,
		"file columns do not match any writable destination column")

	// FileReadError wraps failures to open or stream the uploaded file.
	FileReadError = errors.New("uploaded file is not readable")

	// StorageError wraps staging-load and upsert failures. The single upsert
	// statement is atomic, so a StorageError never leaves a partial write.
	StorageError = errors.New("storage error")
)

// Webhook dispatch errors
var (
	// TransportError covers timeouts, DNS failures and refused connections.
	// HTTP-level responses, including 4xx/5xx, are not transport errors.
	TransportError = errors.New("webhook transport error")
)
