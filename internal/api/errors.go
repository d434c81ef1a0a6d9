package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is the decoded body of a non-200 response.
type APIError struct {
	Status  int    `json:"-"`
	Generic string `json:"generic"`
	Field   string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Generic == "" {
		return fmt.Sprintf("remote error (status %d)", e.Status)
	}
	if e.Field != "" {
		return fmt.Sprintf("remote error (status %d): %s [%s]", e.Status, e.Generic, e.Field)
	}
	return fmt.Sprintf("remote error (status %d): %s", e.Status, e.Generic)
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Generic == "" {
		apiErr.Generic = strings.TrimSpace(string(body))
	}
	return apiErr
}
