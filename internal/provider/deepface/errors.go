package deepface

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrUnsupportedModel    = errors.New("unsupported deepface model")
)

// StatusError is a non-2xx answer from the DeepFace service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Body)
}

func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500
}

// isNoFace recognises the error DeepFace raises when enforce_detection is on
// and the detector found nothing.
func isNoFace(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode >= 500 {
		return false
	}
	return strings.Contains(strings.ToLower(se.Body), "could not be detected")
}
