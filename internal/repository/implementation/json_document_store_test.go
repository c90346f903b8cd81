package implementation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"studyroom-be/internal/model"
	"studyroom-be/internal/repository/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*JSONDocumentStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewJSONDocumentStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestReadMissingDocument(t *testing.T) {
	store, _ := newTestStore(t)

	var todos []model.Todo
	err := store.Read(context.Background(), model.CollectionTodos, &todos)
	assert.True(t, errors.Is(err, contract.ErrDocumentNotFound))
}

func TestReadInvalidDocument(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "studyplans.json"), []byte("{not json"), 0o644))

	var plans []model.StudyPlan
	err := store.Read(context.Background(), model.CollectionStudyPlans, &plans)

	var parseErr *contract.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, model.CollectionStudyPlans, parseErr.Collection)
}

func TestWritePrettyPrintsWholeDocument(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	todos := []model.Todo{{ID: "t1", UserID: "u1", Text: "a"}}
	require.NoError(t, store.Write(ctx, model.CollectionTodos, todos))

	raw, err := os.ReadFile(filepath.Join(dir, "todolist.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"id\": \"t1\"")

	require.NoError(t, store.Write(ctx, model.CollectionTodos, []model.Todo{}))
	var back []model.Todo
	require.NoError(t, store.Read(ctx, model.CollectionTodos, &back))
	assert.Empty(t, back)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestEnsureInitializedIsIdempotent(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, InitializeCollections(ctx, store))
	for _, c := range model.AllCollections {
		raw, err := os.ReadFile(filepath.Join(dir, c.FileName()))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(raw))
	}

	chat := []model.ChatMessage{{ID: "1", Text: "hi"}}
	require.NoError(t, store.Write(ctx, model.CollectionChatHistory, chat))
	require.NoError(t, InitializeCollections(ctx, store))

	history, err := NewChatMessageRepository(store).FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReadHonoursCancelledContext(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var todos []model.Todo
	assert.ErrorIs(t, store.Read(ctx, model.CollectionTodos, &todos), context.Canceled)
}
