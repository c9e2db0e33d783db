// Package dataservice is the client-side boundary to the external data
// service that turns structured queries into warehouse rows. The service
// internals (schema generation, SQL) are not this gateway's concern; only
// the call contract lives here.
package dataservice

import (
	"context"
	"errors"
	"fmt"

	"telecom-query-gateway/internal/models"
)

// Service is the call contract every transport must satisfy.
type Service interface {
	// Query runs exactly one structured query and returns its rows.
	Query(ctx context.Context, q *models.StructuredQuery) ([]models.Row, error)
	// Discover lists the entity names the service currently exposes.
	Discover(ctx context.Context) ([]string, error)
}

// Error kinds the data service reports.
const (
	ErrKindNotFound           = "not_found"
	ErrKindInvalidFilter      = "invalid_filter"
	ErrKindBackendUnavailable = "backend_unavailable"
	ErrKindTimeout            = "timeout"
)

// DataError is a machine-readable failure from the data service.
type DataError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Transient bool   `json:"transient"`
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data service error [%s]: %s", e.Kind, e.Message)
}

// AsDataError unwraps err into a *DataError when possible.
func AsDataError(err error) (*DataError, bool) {
	var de *DataError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsTimeout reports whether err is a deadline failure, either detected
// locally or reported by the service.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if de, ok := AsDataError(err); ok {
		return de.Kind == ErrKindTimeout
	}
	return false
}

// IsTransient reports whether the service marked err as safe to retry.
func IsTransient(err error) bool {
	if de, ok := AsDataError(err); ok {
		return de.Transient
	}
	return false
}
