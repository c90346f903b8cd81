package dto

import (
	"encoding/json"

	"studyroom-be/internal/model"
)

// MessageKind is the "type" of a realtime frame.
type MessageKind string

// Client -> server
const (
	KindAddTodo             MessageKind = "ADD_TODO"
	KindUpdateTodo          MessageKind = "UPDATE_TODO"
	KindDeleteTodo          MessageKind = "DELETE_TODO"
	KindAddStudyPlan        MessageKind = "ADD_STUDY_PLAN"
	KindUpdateStudyPlan     MessageKind = "UPDATE_STUDY_PLAN"
	KindDeleteStudyPlan     MessageKind = "DELETE_STUDY_PLAN"
	KindUpdateStudyProgress MessageKind = "UPDATE_STUDY_PROGRESS"
	KindChatMessage         MessageKind = "CHAT_MESSAGE"
)

// Server -> client
const (
	KindInitAll          MessageKind = "INIT_ALL"
	KindSystemInfo       MessageKind = "SYSTEM_INFO"
	KindUpdateStudyPlans MessageKind = "UPDATE_STUDY_PLANS"
	KindError            MessageKind = "ERROR"
	KindAnnouncement     MessageKind = "ANNOUNCEMENT"
)

// InboundMessage is a client frame. Unknown envelope fields are ignored.
type InboundMessage struct {
	Type MessageKind     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OutboundMessage is every server frame except ERROR.
type OutboundMessage struct {
	Type MessageKind `json:"type"`
	Data interface{} `json:"data"`
}

type ErrorMessage struct {
	Type  MessageKind `json:"type"`
	Error string      `json:"error"`
}

func NewError(reason string) ErrorMessage {
	return ErrorMessage{Type: KindError, Error: reason}
}

type InitAllPayload struct {
	Todos       []model.Todo        `json:"todos"`
	StudyPlans  []model.StudyPlan   `json:"studyPlans"`
	ChatHistory []model.ChatMessage `json:"chatHistory"`
}

// Inbound payloads

type AddTodoRequest = model.Todo

type UpdateTodoRequest struct {
	UserID string       `json:"userId" validate:"required"`
	Todos  []model.Todo `json:"todos" validate:"required"`
}

type DeleteTodoRequest struct {
	ID     string `json:"id" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type AddStudyPlanRequest struct {
	UserID   string `json:"userId" validate:"required"`
	UserName string `json:"userName"`
	Title    string `json:"title" validate:"max=200"`
}

type StudyPlanRefRequest struct {
	ID     string `json:"id" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type UpdateStudyProgressRequest struct {
	ID       string   `json:"id" validate:"required"`
	UserID   string   `json:"userId" validate:"required"`
	Progress *float64 `json:"progress" validate:"required"`
}

type ChatMessageRequest struct {
	Text   string `json:"text" validate:"required,max=4000"`
	Sender string `json:"sender" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}
