package gmail

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// ProviderError reports a failed mailbox API call. Code, Message and Details
// are populated when the API answered with a structured error.
type ProviderError struct {
	Op       string // list, get, modify, labels.list, labels.create
	Resource string // request path relative to the API root
	Code     int
	Message  string
	Details  []string
	Err      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gmail %s %s", e.Op, e.Resource)
	if e.Code != 0 {
		fmt.Fprintf(&b, ": status %d", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err, lifting fields out of *googleapi.Error.
func NewProviderError(op, resource string, err error) *ProviderError {
	pe := &ProviderError{Op: op, Resource: resource, Err: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		pe.Code = apiErr.Code
		pe.Message = apiErr.Message
		for _, item := range apiErr.Errors {
			pe.Details = append(pe.Details, item.Reason+": "+item.Message)
		}
		if len(pe.Details) == 0 && apiErr.Body != "" {
			pe.Details = []string{apiErr.Body}
		}
	}
	return pe
}
