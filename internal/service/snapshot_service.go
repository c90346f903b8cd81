package service

import (
	"context"
	"fmt"

	"studyroom-be/internal/dto"
	"studyroom-be/internal/repository/unitofwork"
)

// SnapshotService reads the three collections for INIT_ALL.
type SnapshotService struct {
	repos unitofwork.RepositoryFactory
}

func NewSnapshotService(repos unitofwork.RepositoryFactory) *SnapshotService {
	return &SnapshotService{repos: repos}
}

func (s *SnapshotService) Snapshot(ctx context.Context) (dto.InitAllPayload, error) {
	var payload dto.InitAllPayload

	todos, err := s.repos.TodoRepository().FindAll(ctx)
	if err != nil {
		return payload, fmt.Errorf("load todos: %w", err)
	}
	plans, err := s.repos.StudyPlanRepository().FindAll(ctx)
	if err != nil {
		return payload, fmt.Errorf("load study plans: %w", err)
	}
	history, err := s.repos.ChatMessageRepository().FindAll(ctx)
	if err != nil {
		return payload, fmt.Errorf("load chat history: %w", err)
	}

	payload.Todos = todos
	payload.StudyPlans = plans
	payload.ChatHistory = history
	return payload, nil
}
