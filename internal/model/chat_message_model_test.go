package model

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendBoundedEvictsOldest(t *testing.T) {
	var history []ChatMessage
	for i := 1; i <= DefaultChatHistoryLimit+1; i++ {
		history = AppendBounded(history, ChatMessage{ID: strconv.Itoa(i)}, DefaultChatHistoryLimit)
	}

	require.Len(t, history, DefaultChatHistoryLimit)
	assert.Equal(t, "2", history[0].ID)
	assert.Equal(t, strconv.Itoa(DefaultChatHistoryLimit+1), history[len(history)-1].ID)
	for i := 1; i < len(history); i++ {
		prev, _ := strconv.Atoi(history[i-1].ID)
		cur, _ := strconv.Atoi(history[i].ID)
		assert.Equal(t, prev+1, cur)
	}
}

func TestAppendBoundedUnderLimit(t *testing.T) {
	history := AppendBounded([]ChatMessage{{ID: "a"}}, ChatMessage{ID: "b"}, 3)
	assert.Equal(t, []ChatMessage{{ID: "a"}, {ID: "b"}}, history)
}
