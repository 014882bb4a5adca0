package amadeus

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrRequest = errors.New("upstream request failed")

// RequestError is a non-success response from a data endpoint. Body holds
// the response when it was valid JSON.
type RequestError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *RequestError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("upstream request failed: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream request failed: status %d", e.StatusCode)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequest
}
