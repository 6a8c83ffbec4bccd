package domain

import "fmt"

// Error types for consistent error handling across the session BFF.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrBackend indicates the ordering backend answered with success=false.
// The message is the backend's own message string, suitable for inline
// display on the restaurant-detail path.
type ErrBackend struct {
	Operation string
	Message   string
}

func (e *ErrBackend) Error() string {
	return fmt.Sprintf("backend rejected %s: %s", e.Operation, e.Message)
}

// ErrGeocode indicates the reverse-geocoding provider failed or returned no
// usable address for the coordinates.
type ErrGeocode struct {
	Lat float64
	Lng float64
	Err error
}

func (e *ErrGeocode) Error() string {
	return fmt.Sprintf("reverse geocode failed for (%f, %f): %v", e.Lat, e.Lng, e.Err)
}

func (e *ErrGeocode) Unwrap() error {
	return e.Err
}

// ErrUnauthorized indicates there is no valid session for the operation.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}
