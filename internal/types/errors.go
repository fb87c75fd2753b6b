package types

import "errors"

// Sentinel errors for courier operations.
var (
	// ErrNotFound indicates an identifier map has no entry for the lookup.
	// Translation degrades gracefully on this error; it is never fatal.
	ErrNotFound = errors.New("identifier mapping not found")

	// ErrMalformedPayload indicates a schema or value failed to parse.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrPipelineFailure indicates the resolution pipeline failed on a nested
	// property. Always propagated to the caller.
	ErrPipelineFailure = errors.New("nested property resolution failed")

	// ErrUnknownDirection indicates a direction other than packaging/extracting.
	ErrUnknownDirection = errors.New("unknown direction")

	// ErrBatchTooLarge indicates a bundle exceeds the configured batch size.
	ErrBatchTooLarge = errors.New("bundle exceeds maximum batch size")
)
