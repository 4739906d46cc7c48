// Package services holds the relay's use cases: reconciling query results
// into pending service responses, dispatching queries, batch and single
// document ingestion, and session history.
//
// This file centralizes the service-level errors. Translation into HTTP
// statuses and user-facing messages happens in the handlers package.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPendingResponse means the session has no pending service response,
	// either because none was created or because another request completed it
	// first.
	ErrNoPendingResponse = errors.New("no pending service response found for this session")

	// ErrNoDocuments is returned when an ingestion pattern matches no files.
	ErrNoDocuments = errors.New("no documents matched the pattern")

	// ErrInvalidPattern wraps a malformed glob pattern.
	ErrInvalidPattern = errors.New("invalid document pattern")

	// ErrFileNotFound is returned by Upload when the path is missing or is a directory.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsafePath is returned by Upload for absolute paths or paths that
	// climb out of the working directory.
	ErrUnsafePath = errors.New("path must be relative to the working directory")
)

// UpstreamError reports a failed call to the document-intelligence service.
// Op names the call ("query", "upload", "find_docset", ...).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// BatchError aborts a strict ingestion run at the first failing file.
type BatchError struct {
	File string
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.File, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
