package unitofwork

import (
	"context"

	"studyroom-be/internal/model"
)

// UnitOfWork scopes one read-modify-write of a single collection.
type UnitOfWork interface {
	// Execute runs fn as one unit against collection. Whether concurrent units
	// on the same collection may interleave depends on the implementation.
	Execute(ctx context.Context, collection model.Collection, fn func(ctx context.Context) error) error

	// Serialized reports whether units on one collection exclude each other.
	Serialized() bool
}
