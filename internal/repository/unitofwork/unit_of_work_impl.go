package unitofwork

import (
	"context"
	"sync"

	"studyroom-be/internal/model"
)

// serialUnitOfWork holds one exclusive token per collection for the whole
// read+mutate+write, so two writers can never both start from the same state.
type serialUnitOfWork struct {
	mu     sync.Mutex
	tokens map[model.Collection]chan struct{}
}

func NewSerialUnitOfWork() UnitOfWork {
	u := &serialUnitOfWork{tokens: make(map[model.Collection]chan struct{})}
	for _, c := range model.AllCollections {
		u.tokens[c] = make(chan struct{}, 1)
	}
	return u
}

func (u *serialUnitOfWork) token(collection model.Collection) chan struct{} {
	u.mu.Lock()
	defer u.mu.Unlock()
	t, ok := u.tokens[collection]
	if !ok {
		t = make(chan struct{}, 1)
		u.tokens[collection] = t
	}
	return t
}

func (u *serialUnitOfWork) Execute(ctx context.Context, collection model.Collection, fn func(ctx context.Context) error) error {
	t := u.token(collection)
	select {
	case t <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-t }()
	return fn(ctx)
}

func (u *serialUnitOfWork) Serialized() bool { return true }

// passthroughUnitOfWork runs units without any exclusion. Two mutations of
// one collection that overlap both read the same state and the later write
// wins (lost update).
type passthroughUnitOfWork struct{}

func NewPassthroughUnitOfWork() UnitOfWork {
	return passthroughUnitOfWork{}
}

func (passthroughUnitOfWork) Execute(ctx context.Context, _ model.Collection, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (passthroughUnitOfWork) Serialized() bool { return false }
