package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoKeepsCallerFields(t *testing.T) {
	in := `{"id":"t1","userId":"u1","text":"read ch. 3","done":false,"priority":2,"tags":["math"]}`

	var todo Todo
	require.NoError(t, json.Unmarshal([]byte(in), &todo))
	assert.Equal(t, "t1", todo.ID)
	assert.Equal(t, "u1", todo.UserID)
	assert.Equal(t, json.RawMessage(`2`), todo.Extra["priority"])

	out, err := json.Marshal(todo)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestTodoExtraNeverOverridesTypedField(t *testing.T) {
	todo := Todo{ID: "t1", UserID: "u1", Extra: map[string]json.RawMessage{"userId": json.RawMessage(`"intruder"`)}}

	out, err := json.Marshal(todo)
	require.NoError(t, err)

	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "u1", back["userId"])
}

func TestTodoBelongsTo(t *testing.T) {
	todo := Todo{ID: "t1", UserID: "u1"}
	assert.True(t, todo.BelongsTo("u1"))
	assert.False(t, todo.BelongsTo("u2"))
}
