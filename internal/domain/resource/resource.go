package resource

import (
	"context"
	"errors"

	"reservd/internal/domain/rates"
)

var ErrNotFound = errors.New("resource: not found")

type ID string

// Resource is the bookable unit. The catalog subsystem owns these rows; the
// reservation engine only reads them for pricing and notification addressing.
type Resource struct {
	ID      ID
	OwnerID string
	Title   string
	Rates   rates.Schedule
}

// Repository is a read-only view over the catalog.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Resource, error)
}
