package contract

import (
	"context"

	"studyroom-be/internal/model"
)

type StudyPlanRepository interface {
	FindAll(ctx context.Context) ([]model.StudyPlan, error)
	SaveAll(ctx context.Context, plans []model.StudyPlan) error
}
