package domain

import "errors"

var (
	// ErrInvalidQuery signals unusable search parameters (blank text, bad filter value).
	ErrInvalidQuery = errors.New("invalid search query")
	// ErrInvalidUpload signals a missing or empty upload.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrUnsupportedFileType signals an upload outside the extension allow-list.
	ErrUnsupportedFileType = errors.New("file type not allowed")
	// ErrBackendFailure signals that the search backend could not serve the query.
	ErrBackendFailure = errors.New("search backend failure")
	// ErrResultProcessing signals a failure while reading backend records.
	ErrResultProcessing = errors.New("result processing failed")
	// ErrBlobStoreFailure signals a blob store write failure.
	ErrBlobStoreFailure = errors.New("blob store failure")
	// ErrInvalidUsagePeriod signals an unknown usage report period.
	ErrInvalidUsagePeriod = errors.New("invalid usage period")
	// ErrExtractionQuotaExceeded signals an exhausted LLM token budget.
	ErrExtractionQuotaExceeded = errors.New("extraction quota exceeded")
	// ErrExtractionProviderError signals an LLM provider failure.
	ErrExtractionProviderError = errors.New("extraction provider error")
)
