package domain

import (
	"errors"
	"fmt"
)

// ErrorKind groups AppErrors into the categories callers react to.
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation"
	KindInvalidState          ErrorKind = "invalid_state"
	KindConflict              ErrorKind = "conflict"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
	KindRateLimited           ErrorKind = "rate_limited"
	KindInternal              ErrorKind = "internal"
)

type AppError struct {
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so that errors produced by WithError still satisfy
// errors.Is against the sentinel they were derived from.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Kind:       e.Kind,
		Err:        err,
	}
}

// WithMessage returns a copy carrying a more specific message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Kind:       e.Kind,
		Err:        e.Err,
	}
}

// KindOf reports the kind of the first AppError in err's chain.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry after backoff: a
// dependency is down or the caller is being throttled.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindDependencyUnavailable, KindRateLimited:
		return true
	}
	return false
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
		Kind:       KindInternal,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
		Kind:       KindValidation,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
		Kind:       KindValidation,
	}

	ErrInvalidDimension = &AppError{
		Code:       "INVALID_EMBEDDING_DIMENSION",
		Message:    "Embedding length does not match the configured descriptor dimension",
		StatusCode: 400,
		Kind:       KindValidation,
	}

	ErrInvalidThreshold = &AppError{
		Code:       "INVALID_THRESHOLD",
		Message:    "Threshold must be between 0 and 1",
		StatusCode: 422,
		Kind:       KindValidation,
	}

	ErrInvalidTopN = &AppError{
		Code:       "INVALID_TOP_N",
		Message:    "topN must be between 1 and 50",
		StatusCode: 422,
		Kind:       KindValidation,
	}

	ErrInvalidConfidence = &AppError{
		Code:       "INVALID_DETECTION_CONFIDENCE",
		Message:    "Detection confidence must be between 0 and 1",
		StatusCode: 422,
		Kind:       KindValidation,
	}

	ErrInvalidAction = &AppError{
		Code:       "INVALID_ACTION",
		Message:    `Action must be "confirm" or "reject"`,
		StatusCode: 400,
		Kind:       KindValidation,
	}

	ErrPhotoNotFound = &AppError{
		Code:       "PHOTO_NOT_FOUND",
		Message:    "Photo not found",
		StatusCode: 404,
		Kind:       KindValidation,
	}

	ErrPersonNotFound = &AppError{
		Code:       "PERSON_NOT_FOUND",
		Message:    "Person not found",
		StatusCode: 404,
		Kind:       KindValidation,
	}

	ErrFaceNotFound = &AppError{
		Code:       "FACE_NOT_FOUND",
		Message:    "Face not found",
		StatusCode: 404,
		Kind:       KindValidation,
	}

	ErrTrainingRunNotFound = &AppError{
		Code:       "TRAINING_RUN_NOT_FOUND",
		Message:    "Training run not found",
		StatusCode: 404,
		Kind:       KindValidation,
	}

	ErrFaceAlreadyReviewed = &AppError{
		Code:       "FACE_ALREADY_REVIEWED",
		Message:    "Face has already been confirmed or rejected",
		StatusCode: 409,
		Kind:       KindInvalidState,
	}

	ErrEmbeddingExists = &AppError{
		Code:       "EMBEDDING_EXISTS",
		Message:    "An embedding for this person and photo already exists",
		StatusCode: 409,
		Kind:       KindConflict,
	}

	ErrPhotoExists = &AppError{
		Code:       "PHOTO_EXISTS",
		Message:    "A photo with this file name already exists",
		StatusCode: 409,
		Kind:       KindConflict,
	}

	ErrStorageUnavailable = &AppError{
		Code:       "STORAGE_UNAVAILABLE",
		Message:    "Storage is unavailable, try again later",
		StatusCode: 503,
		Kind:       KindDependencyUnavailable,
	}

	ErrDetectorUnavailable = &AppError{
		Code:       "DETECTOR_UNAVAILABLE",
		Message:    "Face detector is unavailable or not loaded",
		StatusCode: 503,
		Kind:       KindDependencyUnavailable,
	}

	ErrPhotoUnavailable = &AppError{
		Code:       "PHOTO_UNAVAILABLE",
		Message:    "Photo image could not be read",
		StatusCode: 503,
		Kind:       KindDependencyUnavailable,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
		Kind:       KindRateLimited,
	}
)

// Unavailable wraps a lower-level storage error unless it already carries
// a domain meaning.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return ErrStorageUnavailable.WithError(err)
}
