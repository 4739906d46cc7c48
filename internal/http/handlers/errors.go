// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries one of these codes next to the HTTP status and
// a human-readable message, so clients can branch on the code:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "no_pending_response",
//	  "error": "No pending service response found for this session"
//	}
package handlers

const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeInternal   = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeNoPendingResponse = "no_pending_response"
	ErrCodeFileNotFound      = "file_not_found"
	ErrCodeNoDocuments       = "no_documents"
	ErrCodeUpstream          = "upstream_error"
	ErrCodeBatchFailed       = "batch_failed"
)

// User-facing messages with a fixed wording.
const (
	msgNoPendingResponse = "No pending service response found for this session"
	msgInvalidJSON       = "Request body must be a JSON object"
)
