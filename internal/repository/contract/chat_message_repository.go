package contract

import (
	"context"

	"studyroom-be/internal/model"
)

type ChatMessageRepository interface {
	FindAll(ctx context.Context) ([]model.ChatMessage, error)
	SaveAll(ctx context.Context, history []model.ChatMessage) error
}
