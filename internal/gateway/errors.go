package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the call never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-success status, or a success whose body could not be
// decoded into the expected shape.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// StatusCode lets metrics classify the failure without importing this package.
func (e *RemoteError) StatusCode() int {
	return e.Status
}

// Message is the error text the users API put in its envelope, when any.
func (e *RemoteError) Message() string {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return http.StatusText(e.Status)
}

// IsUnauthorized reports whether err is a 401 from the users API.
func IsUnauthorized(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusUnauthorized
}

func (e *NetworkError) Message() string {
	return "the users service is unreachable"
}
