package models

import "fmt"

// Error codes used in CLI exits, API responses and internal error handling.
//
// The first four cover the scrape lifecycle in order: the session could not
// start, the page could not be loaded, the manuscripts table never appeared,
// or a row had the wrong number of cells. All four abort the run.
const (
	ErrCodeSessionStart  = "SESSION_START_FAILED"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeTableNotFound = "TABLE_NOT_FOUND"
	ErrCodeRowShape      = "ROW_SHAPE_MISMATCH"
	ErrCodeTimeout       = "SCRAPE_TIMEOUT"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeOutput        = "OUTPUT_FAILED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the error shape embedded in API and webhook payloads.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError pairs a failure with its code. Every error that leaves the
// orchestrator, a driver or a sink is one of these; errors.As through the
// wrap chain recovers it wherever the code decides behavior (CLI stderr
// format, HTTP status, webhook payload).
type ScrapeError struct {
	Code    string
	Message string
	Err     error // underlying cause, nil when the condition itself is the error
}

// Error renders "CODE: message" or "CODE: message: cause".
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError builds a coded error wrapping err, which may be nil.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail strips the wrapped cause for external payloads.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
