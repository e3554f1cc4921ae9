package models

import (
	"errors"
	"fmt"
)

/* NotFoundError */

var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (*NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

/* BadRequestError */

var ErrBadRequest = errors.New("bad request")

type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("bad request: %s", e.Message)
}

func (*BadRequestError) Unwrap() error {
	return ErrBadRequest
}

func NewBadRequestError(message string) error {
	return &BadRequestError{Message: message}
}

/* UpstreamCompletionError */

// ErrUpstreamCompletion marks a failed or timed out chat completion. It is fatal to the request.
var ErrUpstreamCompletion = errors.New("upstream completion failed")

type UpstreamCompletionError struct {
	Message       string
	OriginalError error
}

func (e *UpstreamCompletionError) Error() string {
	return fmt.Sprintf("upstream completion error: %s (original error: %v)", e.Message, e.OriginalError)
}

// Is lets errors.Is match both the sentinel and the wrapped cause, e.g. context.DeadlineExceeded.
func (e *UpstreamCompletionError) Is(target error) bool {
	return target == ErrUpstreamCompletion
}

func (e *UpstreamCompletionError) Unwrap() error {
	return e.OriginalError
}

func NewUpstreamCompletionError(message string, originalError error) *UpstreamCompletionError {
	return &UpstreamCompletionError{Message: message, OriginalError: originalError}
}

/* UpstreamSearchError */

var ErrUpstreamSearch = errors.New("upstream search failed")

type UpstreamSearchError struct {
	Service       string
	Message       string
	OriginalError error
}

func (e *UpstreamSearchError) Error() string {
	return fmt.Sprintf(
		"upstream search error (%s): %s (original error: %v)",
		e.Service,
		e.Message,
		e.OriginalError,
	)
}

func (e *UpstreamSearchError) Is(target error) bool {
	return target == ErrUpstreamSearch
}

func (e *UpstreamSearchError) Unwrap() error {
	return e.OriginalError
}

func NewUpstreamSearchError(service, message string, originalError error) *UpstreamSearchError {
	return &UpstreamSearchError{Service: service, Message: message, OriginalError: originalError}
}

/* SummarizationError */

// ErrSummarization is returned by ConversationMemory.Append when the rolling summary
// could not be produced. The memory is left unchanged.
var ErrSummarization = errors.New("summarization failed")

type SummarizationError struct {
	Message       string
	OriginalError error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization error: %s (original error: %v)", e.Message, e.OriginalError)
}

func (e *SummarizationError) Is(target error) bool {
	return target == ErrSummarization
}

func (e *SummarizationError) Unwrap() error {
	return e.OriginalError
}

func NewSummarizationError(message string, originalError error) *SummarizationError {
	return &SummarizationError{Message: message, OriginalError: originalError}
}

/* PersistenceError */

var ErrPersistence = errors.New("persistence failed")

type PersistenceError struct {
	Message       string
	OriginalError error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s (original error: %v)", e.Message, e.OriginalError)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.OriginalError
}

func NewPersistenceError(message string, originalError error) *PersistenceError {
	return &PersistenceError{Message: message, OriginalError: originalError}
}

// ErrParseAmbiguity is logged when a completion yields neither keywords nor recommendations.
// It is never returned to callers.
var ErrParseAmbiguity = errors.New("completion could not be parsed into keywords or recommendations")
