package model

import "time"

// DefaultChatHistoryLimit bounds the persisted chat ring.
const DefaultChatHistoryLimit = 1000

type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendBounded appends msg and keeps only the newest limit entries, oldest first.
func AppendBounded(history []ChatMessage, msg ChatMessage, limit int) []ChatMessage {
	history = append(history, msg)
	if limit > 0 && len(history) > limit {
		trimmed := make([]ChatMessage, limit)
		copy(trimmed, history[len(history)-limit:])
		history = trimmed
	}
	return history
}
