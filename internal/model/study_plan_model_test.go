package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampProgress(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-20, 0},
		{0, 0},
		{42, 42},
		{42.6, 43},
		{100, 100},
		{150, 100},
		{math.Inf(1), 100},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampProgress(tt.in), "ClampProgress(%v)", tt.in)
	}
}

func TestStudyPlanMergeProtectsServerFields(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := StudyPlan{ID: "1", UserID: "u1", UserName: "Alice", CreatedAt: created}

	patch := map[string]json.RawMessage{
		"id":          json.RawMessage(`"hijack"`),
		"userId":      json.RawMessage(`"u2"`),
		"createdAt":   json.RawMessage(`"1999-01-01T00:00:00Z"`),
		"title":       json.RawMessage(`"Calculus"`),
		"progress":    json.RawMessage(`250`),
		"description": json.RawMessage(`"chapters 1-4"`),
	}
	now := created.Add(time.Hour)
	require.NoError(t, plan.Merge(patch, now))

	assert.Equal(t, "1", plan.ID)
	assert.Equal(t, "u1", plan.UserID)
	assert.Equal(t, created, plan.CreatedAt)
	assert.Equal(t, "Calculus", plan.Title)
	assert.Equal(t, MaxProgress, plan.Progress)
	assert.Equal(t, json.RawMessage(`"chapters 1-4"`), plan.Extra["description"])
	require.NotNil(t, plan.UpdatedAt)
	assert.Equal(t, now, *plan.UpdatedAt)
}

func TestStudyPlanApplyFieldsNullRemovesExtra(t *testing.T) {
	plan := StudyPlan{Extra: map[string]json.RawMessage{"description": json.RawMessage(`"x"`)}}

	require.NoError(t, plan.ApplyFields(map[string]json.RawMessage{"description": json.RawMessage(`null`)}))
	assert.NotContains(t, plan.Extra, "description")
}

func TestStudyPlanApplyFieldsRejectsBadProgress(t *testing.T) {
	plan := StudyPlan{}
	err := plan.ApplyFields(map[string]json.RawMessage{"progress": json.RawMessage(`"lots"`)})
	assert.Error(t, err)
}

func TestStudyPlanSetProgress(t *testing.T) {
	plan := StudyPlan{}
	now := time.Now()

	plan.SetProgress(-5, now)
	assert.Equal(t, 0, plan.Progress)
	require.NotNil(t, plan.LastProgressUpdate)
	assert.Equal(t, now, *plan.LastProgressUpdate)

	plan.SetProgress(101, now)
	assert.Equal(t, 100, plan.Progress)
}

func TestStudyPlanRoundTripKeepsExtras(t *testing.T) {
	in := `{"id":"1","userId":"u1","userName":"Alice","title":"Math","progress":10,"createdAt":"2025-01-01T00:00:00Z","color":"#ff0000"}`

	var plan StudyPlan
	require.NoError(t, json.Unmarshal([]byte(in), &plan))
	out, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}
