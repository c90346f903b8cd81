package unitofwork

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"studyroom-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialUnitExcludesSameCollection(t *testing.T) {
	uow := NewSerialUnitOfWork()
	require.True(t, uow.Serialized())

	var inside, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := uow.Execute(context.Background(), model.CollectionTodos, func(context.Context) error {
				n := inside.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestSerialUnitAllowsOtherCollections(t *testing.T) {
	uow := NewSerialUnitOfWork()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = uow.Execute(context.Background(), model.CollectionTodos, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ran := false
	err := uow.Execute(context.Background(), model.CollectionChatHistory, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSerialUnitCancelledWhileWaiting(t *testing.T) {
	uow := NewSerialUnitOfWork()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = uow.Execute(context.Background(), model.CollectionStudyPlans, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := uow.Execute(ctx, model.CollectionStudyPlans, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestSerialUnitReleasesOnError(t *testing.T) {
	uow := NewSerialUnitOfWork()
	boom := assert.AnError

	err := uow.Execute(context.Background(), model.CollectionTodos, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = uow.Execute(context.Background(), model.CollectionTodos, func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestPassthroughUnitInterleaves(t *testing.T) {
	uow := NewPassthroughUnitOfWork()
	require.False(t, uow.Serialized())

	firstIn := make(chan struct{})
	secondDone := make(chan struct{})

	go func() {
		_ = uow.Execute(context.Background(), model.CollectionTodos, func(context.Context) error {
			close(firstIn)
			<-secondDone
			return nil
		})
	}()
	<-firstIn

	err := uow.Execute(context.Background(), model.CollectionTodos, func(context.Context) error { return nil })
	require.NoError(t, err)
	close(secondDone)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, uow.Execute(ctx, model.CollectionTodos, func(context.Context) error { return nil }), context.Canceled)
}
