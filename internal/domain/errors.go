package domain

import "errors"

// KeyPrefix namespaces every key this service writes to the vector store.
const KeyPrefix = "askdocs:"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals an invalid request parameter.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedFileType signals a file extension with no extractor.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrExtraction signals that no usable text could be extracted.
	ErrExtraction = errors.New("no extractable text")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable signals missing credentials or model for the embedding backend.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
	// ErrEmbeddingRequest signals an embedding provider failure.
	ErrEmbeddingRequest = errors.New("embedding request failed")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")

	// ErrNamespaceCreate signals a namespace creation failure other than already-exists.
	ErrNamespaceCreate = errors.New("namespace create failed")
	// ErrIndexQuery signals a per-namespace query failure (non-fatal to routing).
	ErrIndexQuery = errors.New("index query failed")

	// ErrModelRequest signals a language model call failure.
	ErrModelRequest = errors.New("model request failed")
	// ErrModelRateLimited signals that every configured model key is rate limited.
	ErrModelRateLimited = errors.New("model rate limited")
	// ErrResponseParse signals that the model reply contained no parseable JSON.
	ErrResponseParse = errors.New("model response parse failed")
)
