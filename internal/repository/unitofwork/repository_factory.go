package unitofwork

import (
	"studyroom-be/internal/repository/contract"
)

type RepositoryFactory interface {
	TodoRepository() contract.TodoRepository
	StudyPlanRepository() contract.StudyPlanRepository
	ChatMessageRepository() contract.ChatMessageRepository
	UnitOfWork() UnitOfWork
}
