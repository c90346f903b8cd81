package implementation

import (
	"context"

	"studyroom-be/internal/model"
	"studyroom-be/internal/repository/contract"
)

// documentRepository maps one collection onto a typed slice.
type documentRepository[T any] struct {
	store      contract.DocumentStore
	collection model.Collection
}

func (r *documentRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.store.Read(ctx, r.collection, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *documentRepository[T]) SaveAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return r.store.Write(ctx, r.collection, items)
}

func NewTodoRepository(store contract.DocumentStore) contract.TodoRepository {
	return &documentRepository[model.Todo]{store: store, collection: model.CollectionTodos}
}

func NewStudyPlanRepository(store contract.DocumentStore) contract.StudyPlanRepository {
	return &documentRepository[model.StudyPlan]{store: store, collection: model.CollectionStudyPlans}
}

func NewChatMessageRepository(store contract.DocumentStore) contract.ChatMessageRepository {
	return &documentRepository[model.ChatMessage]{store: store, collection: model.CollectionChatHistory}
}

// InitializeCollections creates every missing collection file as an empty array.
func InitializeCollections(ctx context.Context, store contract.DocumentStore) error {
	for _, c := range model.AllCollections {
		if err := store.EnsureInitialized(ctx, c, []struct{}{}); err != nil {
			return err
		}
	}
	return nil
}
