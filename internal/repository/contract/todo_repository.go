package contract

import (
	"context"

	"studyroom-be/internal/model"
)

type TodoRepository interface {
	FindAll(ctx context.Context) ([]model.Todo, error)
	SaveAll(ctx context.Context, todos []model.Todo) error
}
