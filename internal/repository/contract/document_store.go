package contract

import (
	"context"
	"errors"
	"fmt"

	"studyroom-be/internal/model"
)

var ErrDocumentNotFound = errors.New("document not found")

// ParseError reports a collection file whose content is not valid JSON for
// the expected shape.
type ParseError struct {
	Collection model.Collection
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Collection, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DocumentStore persists whole collections. There are no partial updates:
// callers read the full value, change it, and write it back.
type DocumentStore interface {
	Read(ctx context.Context, collection model.Collection, out interface{}) error
	Write(ctx context.Context, collection model.Collection, value interface{}) error
	EnsureInitialized(ctx context.Context, collection model.Collection, defaultValue interface{}) error
}
