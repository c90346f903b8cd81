package unitofwork

import (
	"studyroom-be/internal/repository/contract"
	"studyroom-be/internal/repository/implementation"
)

type RepositoryFactoryImpl struct {
	todos      contract.TodoRepository
	studyPlans contract.StudyPlanRepository
	chat       contract.ChatMessageRepository
	uow        UnitOfWork
}

// NewRepositoryFactory builds the collection repositories over store. With
// serialize=false mutations of one collection are not excluded from each other.
func NewRepositoryFactory(store contract.DocumentStore, serialize bool) RepositoryFactory {
	uow := NewPassthroughUnitOfWork()
	if serialize {
		uow = NewSerialUnitOfWork()
	}
	return &RepositoryFactoryImpl{
		todos:      implementation.NewTodoRepository(store),
		studyPlans: implementation.NewStudyPlanRepository(store),
		chat:       implementation.NewChatMessageRepository(store),
		uow:        uow,
	}
}

func (f *RepositoryFactoryImpl) TodoRepository() contract.TodoRepository {
	return f.todos
}

func (f *RepositoryFactoryImpl) StudyPlanRepository() contract.StudyPlanRepository {
	return f.studyPlans
}

func (f *RepositoryFactoryImpl) ChatMessageRepository() contract.ChatMessageRepository {
	return f.chat
}

func (f *RepositoryFactoryImpl) UnitOfWork() UnitOfWork {
	return f.uow
}
