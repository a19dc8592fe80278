package datacite

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRemote matches every *RemoteError with errors.Is.
var ErrRemote = errors.New("datacite request failed")

// RemoteError reports a non-success response from the DataCite API.
type RemoteError struct {
	Op         string
	DOI        string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: datacite returned %d", e.Op, e.DOI, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: datacite returned %d: %s", e.Op, e.DOI, e.StatusCode, body)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// ErrorKind classifies the failure for callers that report outcomes.
func (e *RemoteError) ErrorKind() string {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return "auth"
	case e.StatusCode == http.StatusNotFound:
		return "not_found"
	case e.StatusCode == http.StatusUnprocessableEntity:
		return "validation"
	default:
		return "remote"
	}
}
