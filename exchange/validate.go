package exchange

import (
	"fmt"
	"net/http"
)

// StatusError reports a response status rejected by ValidateStatus.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("response status is not acceptable: %s", e.Status)
	}
	return fmt.Sprintf("response status is not acceptable: %d", e.StatusCode)
}

// ValidateStatus applies the default validation rules when validate is
// true: only 2xx statuses are acceptable.
func ValidateStatus(resp *http.Response, validate bool) error {
	if !validate {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
