package console

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is returned when neither an API token nor a
// username/password pair is configured
var ErrNoCredentials = errors.New("no console credentials configured")

// AuthError means a credential could not be obtained or was rejected
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("console auth: %s: %v", e.Reason, e.Err)
	}
	return "console auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// RemoteError is a console call that failed after retries, or returned a
// non-retryable status. Status is zero for transport-level failures.
type RemoteError struct {
	Status   int
	Endpoint string
	Message  string
	Err      error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("console %s: %v", e.Endpoint, e.Err)
	case e.Message != "":
		return fmt.Sprintf("console %s: status %d: %s", e.Endpoint, e.Status, e.Message)
	default:
		return fmt.Sprintf("console %s: status %d", e.Endpoint, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsTransport reports whether the failure happened before any HTTP status was received
func (e *RemoteError) IsTransport() bool { return e.Status == 0 }

// DeliveryError is returned when every broadcast strategy failed
type DeliveryError struct {
	Attempts int
	LastErr  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("broadcast not delivered after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *DeliveryError) Unwrap() error { return e.LastErr }

// IsUnavailable reports whether err means the console could not be reached
// or refused us, as opposed to a domain outcome like "not found"
func IsUnavailable(err error) bool {
	var authErr *AuthError
	var remoteErr *RemoteError
	var deliveryErr *DeliveryError
	return errors.As(err, &authErr) || errors.As(err, &remoteErr) || errors.As(err, &deliveryErr)
}
