package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"studyroom-be/internal/dto"
	"studyroom-be/internal/model"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/internal/pkg/metrics"
	"studyroom-be/internal/repository/unitofwork"
	"studyroom-be/internal/websocket"
	"studyroom-be/pkg/events"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Broadcaster fans a message out to every open connection.
type Broadcaster interface {
	Broadcast(message interface{}) error
}

// EventPublisher receives domain events after a successful mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type SyncServiceConfig struct {
	MaxPayloadBytes  int64
	ChatHistoryLimit int
}

// SyncService applies client mutations to the shared collections. Each
// mutation reads the collection fresh from the store, changes it, writes it
// back whole and broadcasts the result.
type SyncService struct {
	repos       unitofwork.RepositoryFactory
	broadcaster Broadcaster
	publisher   EventPublisher
	validate    *validator.Validate
	logger      logger.ILogger
	metrics     *metrics.Realtime
	tracer      trace.Tracer
	cfg         SyncServiceConfig

	now func() time.Time
	ids *idGenerator
}

func NewSyncService(
	repos unitofwork.RepositoryFactory,
	broadcaster Broadcaster,
	publisher EventPublisher,
	log logger.ILogger,
	m *metrics.Realtime,
	cfg SyncServiceConfig,
) *SyncService {
	if cfg.ChatHistoryLimit <= 0 {
		cfg.ChatHistoryLimit = model.DefaultChatHistoryLimit
	}
	now := time.Now
	return &SyncService{
		repos:       repos,
		broadcaster: broadcaster,
		publisher:   publisher,
		validate:    newPayloadValidator(),
		logger:      log,
		metrics:     m,
		tracer:      otel.Tracer("studyroom-be/sync"),
		cfg:         cfg,
		now:         now,
		ids:         newIDGenerator(now),
	}
}

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// HandleMessage processes one inbound frame. Failures are reported to sender
// only; the connection stays open.
func (s *SyncService) HandleMessage(ctx context.Context, sender websocket.Sender, raw []byte) {
	ctx, span := s.tracer.Start(ctx, "realtime.message", trace.WithAttributes(
		attribute.String("client.id", sender.ID().String()),
		attribute.Int("message.size", len(raw)),
	))
	defer span.End()

	kind := "unparsed"
	err := s.dispatch(ctx, raw, &kind)
	span.SetAttributes(attribute.String("message.type", kind))
	if err == nil {
		s.metrics.ObserveMessage(kind, "ok")
		return
	}

	label := errorKindLabel(err)
	s.metrics.ObserveMessage(kind, label)
	span.RecordError(err)
	span.SetStatus(codes.Error, label)

	fields := map[string]interface{}{
		"client_id":   sender.ID(),
		"remote_addr": sender.RemoteAddr(),
		"type":        kind,
		"kind":        label,
		"error":       err.Error(),
	}
	if errors.Is(err, ErrPersistence) {
		s.logger.Error("SyncService", "Mutation failed", fields)
	} else {
		s.logger.Warn("SyncService", "Mutation rejected", fields)
	}

	if sendErr := sender.SendJSON(dto.NewError(replyReason(err))); sendErr != nil {
		s.logger.Debug("SyncService", "Could not deliver error reply", map[string]interface{}{
			"client_id": sender.ID(),
			"error":     sendErr.Error(),
		})
	}
}

func replyReason(err error) string {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Reason
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Server is shutting down"
	}
	return err.Error()
}

func (s *SyncService) dispatch(ctx context.Context, raw []byte, kind *string) error {
	if s.cfg.MaxPayloadBytes > 0 && int64(len(raw)) > s.cfg.MaxPayloadBytes {
		return protocolError("Message too large", nil)
	}

	var msg dto.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return protocolError("Invalid message format", err)
	}
	if msg.Type == "" {
		return protocolError("Missing message type", nil)
	}
	*kind = string(msg.Type)

	switch msg.Type {
	case dto.KindAddTodo:
		return s.addTodo(ctx, msg.Data)
	case dto.KindUpdateTodo:
		return s.updateTodos(ctx, msg.Data)
	case dto.KindDeleteTodo:
		return s.deleteTodo(ctx, msg.Data)
	case dto.KindAddStudyPlan:
		return s.addStudyPlan(ctx, msg.Data)
	case dto.KindUpdateStudyPlan:
		return s.updateStudyPlan(ctx, msg.Data)
	case dto.KindDeleteStudyPlan:
		return s.deleteStudyPlan(ctx, msg.Data)
	case dto.KindUpdateStudyProgress:
		return s.updateStudyProgress(ctx, msg.Data)
	case dto.KindChatMessage:
		return s.postChatMessage(ctx, msg.Data)
	default:
		*kind = "unknown"
		s.logger.Warn("SyncService", fmt.Sprintf("Unknown message type: %s", msg.Type), nil)
		return nil
	}
}

// decode unmarshals data into out and validates it.
func (s *SyncService) decode(data json.RawMessage, out interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return protocolError("Missing message data", nil)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return protocolError("Invalid message data", err)
	}
	if err := s.validate.Struct(out); err != nil {
		return protocolError(validationReason(err), err)
	}
	return nil
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid message data"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Missing required field: %s", fe.Field())
	case "max":
		return fmt.Sprintf("Field too long: %s", fe.Field())
	}
	return fmt.Sprintf("Invalid field: %s", fe.Field())
}

// Todos

func (s *SyncService) mutateTodos(ctx context.Context, kind dto.MessageKind, fn func([]model.Todo) ([]model.Todo, error)) ([]model.Todo, error) {
	var result []model.Todo
	err := s.repos.UnitOfWork().Execute(ctx, model.CollectionTodos, func(ctx context.Context) error {
		repo := s.repos.TodoRepository()
		todos, err := repo.FindAll(ctx)
		if err != nil {
			return persistenceError("Failed to load todos", err)
		}
		next, err := fn(todos)
		if err != nil {
			return err
		}
		if err := repo.SaveAll(ctx, next); err != nil {
			return persistenceError("Failed to save todos", err)
		}
		s.broadcast(kind, next)
		result = next
		return nil
	})
	return result, err
}

func (s *SyncService) addTodo(ctx context.Context, data json.RawMessage) error {
	var req dto.AddTodoRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	todos, err := s.mutateTodos(ctx, dto.KindAddTodo, func(todos []model.Todo) ([]model.Todo, error) {
		return append(todos, req), nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeTodosChanged, map[string]interface{}{"action": string(dto.KindAddTodo), "userId": req.UserID, "count": len(todos)})
	return nil
}

func (s *SyncService) updateTodos(ctx context.Context, data json.RawMessage) error {
	var req dto.UpdateTodoRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}

	replacement := make([]model.Todo, 0, len(req.Todos))
	for _, t := range req.Todos {
		t.UserID = req.UserID
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		replacement = append(replacement, t)
	}

	todos, err := s.mutateTodos(ctx, dto.KindUpdateTodo, func(todos []model.Todo) ([]model.Todo, error) {
		next := make([]model.Todo, 0, len(todos)+len(replacement))
		for _, t := range todos {
			if !t.BelongsTo(req.UserID) {
				next = append(next, t)
			}
		}
		return append(next, replacement...), nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeTodosChanged, map[string]interface{}{"action": string(dto.KindUpdateTodo), "userId": req.UserID, "count": len(todos)})
	return nil
}

func (s *SyncService) deleteTodo(ctx context.Context, data json.RawMessage) error {
	var req dto.DeleteTodoRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}

	todos, err := s.mutateTodos(ctx, dto.KindDeleteTodo, func(todos []model.Todo) ([]model.Todo, error) {
		index := -1
		foreign := false
		for i, t := range todos {
			if t.ID != req.ID {
				continue
			}
			if t.BelongsTo(req.UserID) {
				index = i
				break
			}
			foreign = true
		}
		if index < 0 {
			if foreign {
				return nil, authorizationError("Not authorized to delete this todo")
			}
			return nil, notFoundError("Todo not found")
		}

		next := make([]model.Todo, 0, len(todos)-1)
		next = append(next, todos[:index]...)
		return append(next, todos[index+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeTodosChanged, map[string]interface{}{"action": string(dto.KindDeleteTodo), "userId": req.UserID, "count": len(todos)})
	return nil
}

// Study plans

func (s *SyncService) mutatePlans(ctx context.Context, fn func([]model.StudyPlan) ([]model.StudyPlan, error)) ([]model.StudyPlan, error) {
	var result []model.StudyPlan
	err := s.repos.UnitOfWork().Execute(ctx, model.CollectionStudyPlans, func(ctx context.Context) error {
		repo := s.repos.StudyPlanRepository()
		plans, err := repo.FindAll(ctx)
		if err != nil {
			return persistenceError("Failed to load study plans", err)
		}
		next, err := fn(plans)
		if err != nil {
			return err
		}
		if err := repo.SaveAll(ctx, next); err != nil {
			return persistenceError("Failed to save study plans", err)
		}
		s.broadcast(dto.KindUpdateStudyPlans, next)
		result = next
		return nil
	})
	return result, err
}

// findOwnedPlan returns the index of plan id, checking that userID owns it.
func findOwnedPlan(plans []model.StudyPlan, id, userID string) (int, error) {
	for i, p := range plans {
		if p.ID != id {
			continue
		}
		if !p.OwnedBy(userID) {
			return -1, authorizationError("Not authorized to modify this study plan")
		}
		return i, nil
	}
	return -1, notFoundError("Study plan not found")
}

func decodeFields(data json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, protocolError("Invalid message data", err)
	}
	return fields, nil
}

func (s *SyncService) addStudyPlan(ctx context.Context, data json.RawMessage) error {
	var req dto.AddStudyPlanRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}
	fields, err := decodeFields(data)
	if err != nil {
		return err
	}
	delete(fields, "progress")

	plan := model.StudyPlan{
		ID:        s.ids.Next(),
		UserID:    req.UserID,
		Progress:  model.MinProgress,
		CreatedAt: s.now().UTC(),
	}
	if err := plan.ApplyFields(fields); err != nil {
		return protocolError("Invalid message data", err)
	}

	plans, err := s.mutatePlans(ctx, func(plans []model.StudyPlan) ([]model.StudyPlan, error) {
		return append(plans, plan), nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeStudyPlansChanged, map[string]interface{}{"action": string(dto.KindAddStudyPlan), "planId": plan.ID, "userId": plan.UserID, "count": len(plans)})
	return nil
}

func (s *SyncService) updateStudyPlan(ctx context.Context, data json.RawMessage) error {
	var req dto.StudyPlanRefRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}
	fields, err := decodeFields(data)
	if err != nil {
		return err
	}

	plans, err := s.mutatePlans(ctx, func(plans []model.StudyPlan) ([]model.StudyPlan, error) {
		i, err := findOwnedPlan(plans, req.ID, req.UserID)
		if err != nil {
			return nil, err
		}
		if err := plans[i].Merge(fields, s.now().UTC()); err != nil {
			return nil, protocolError("Invalid message data", err)
		}
		return plans, nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeStudyPlansChanged, map[string]interface{}{"action": string(dto.KindUpdateStudyPlan), "planId": req.ID, "userId": req.UserID, "count": len(plans)})
	return nil
}

func (s *SyncService) deleteStudyPlan(ctx context.Context, data json.RawMessage) error {
	var req dto.StudyPlanRefRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}

	plans, err := s.mutatePlans(ctx, func(plans []model.StudyPlan) ([]model.StudyPlan, error) {
		i, err := findOwnedPlan(plans, req.ID, req.UserID)
		if err != nil {
			return nil, err
		}
		next := make([]model.StudyPlan, 0, len(plans)-1)
		next = append(next, plans[:i]...)
		return append(next, plans[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeStudyPlansChanged, map[string]interface{}{"action": string(dto.KindDeleteStudyPlan), "planId": req.ID, "userId": req.UserID, "count": len(plans)})
	return nil
}

func (s *SyncService) updateStudyProgress(ctx context.Context, data json.RawMessage) error {
	var req dto.UpdateStudyProgressRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}

	var progress int
	_, err := s.mutatePlans(ctx, func(plans []model.StudyPlan) ([]model.StudyPlan, error) {
		i, err := findOwnedPlan(plans, req.ID, req.UserID)
		if err != nil {
			return nil, err
		}
		plans[i].SetProgress(*req.Progress, s.now().UTC())
		progress = plans[i].Progress
		return plans, nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeStudyPlansChanged, map[string]interface{}{"action": string(dto.KindUpdateStudyProgress), "planId": req.ID, "userId": req.UserID, "progress": progress})
	return nil
}

// Chat

func (s *SyncService) postChatMessage(ctx context.Context, data json.RawMessage) error {
	var req dto.ChatMessageRequest
	if err := s.decode(data, &req); err != nil {
		return err
	}

	msg := model.ChatMessage{
		ID:        s.ids.Next(),
		Text:      req.Text,
		Sender:    req.Sender,
		UserID:    req.UserID,
		Timestamp: s.now().UTC(),
	}

	err := s.repos.UnitOfWork().Execute(ctx, model.CollectionChatHistory, func(ctx context.Context) error {
		repo := s.repos.ChatMessageRepository()
		history, err := repo.FindAll(ctx)
		if err != nil {
			return persistenceError("Failed to load chat history", err)
		}
		if err := repo.SaveAll(ctx, model.AppendBounded(history, msg, s.cfg.ChatHistoryLimit)); err != nil {
			return persistenceError("Failed to save chat history", err)
		}
		s.broadcast(dto.KindChatMessage, msg)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeChatMessagePosted, map[string]interface{}{"id": msg.ID, "userId": msg.UserID, "sender": msg.Sender})
	return nil
}

func (s *SyncService) broadcast(kind dto.MessageKind, data interface{}) {
	if err := s.broadcaster.Broadcast(dto.OutboundMessage{Type: kind, Data: data}); err != nil {
		s.logger.Error("SyncService", "Broadcast failed", map[string]interface{}{"type": string(kind), "error": err})
	}
}

func (s *SyncService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("SyncService", "Failed to publish domain event", map[string]interface{}{"event": eventType, "error": err.Error()})
	}
}

// idGenerator hands out time-based ids (milliseconds since the epoch) that
// strictly increase even when two ids are requested in the same millisecond.
type idGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDGenerator(now func() time.Time) *idGenerator {
	return &idGenerator{now: now}
}

func (g *idGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
