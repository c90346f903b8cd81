package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const (
	MinProgress = 0
	MaxProgress = 100
)

type StudyPlan struct {
	ID                 string                     `json:"id"`
	UserID             string                     `json:"userId"`
	UserName           string                     `json:"userName"`
	Title              string                     `json:"title,omitempty"`
	Progress           int                        `json:"progress"`
	CreatedAt          time.Time                  `json:"createdAt"`
	UpdatedAt          *time.Time                 `json:"updatedAt,omitempty"`
	LastProgressUpdate *time.Time                 `json:"lastProgressUpdate,omitempty"`
	Extra              map[string]json.RawMessage `json:"-"`
}

var studyPlanFields = keySet("id", "userId", "userName", "title", "progress", "createdAt", "updatedAt", "lastProgressUpdate")

// Server-owned fields a client patch may not overwrite.
var studyPlanProtected = keySet("id", "userId", "createdAt", "updatedAt", "lastProgressUpdate")

type studyPlanAlias StudyPlan

func (p *StudyPlan) UnmarshalJSON(data []byte) error {
	var a studyPlanAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extras, err := collectExtras(data, studyPlanFields)
	if err != nil {
		return err
	}
	*p = StudyPlan(a)
	p.Extra = extras
	return nil
}

func (p StudyPlan) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(studyPlanAlias(p))
	if err != nil {
		return nil, err
	}
	return mergeExtras(base, p.Extra)
}

func (p StudyPlan) OwnedBy(userID string) bool {
	return p.UserID == userID
}

// SetProgress clamps value into [0,100] and stamps lastProgressUpdate.
func (p *StudyPlan) SetProgress(value float64, now time.Time) {
	p.Progress = ClampProgress(value)
	p.LastProgressUpdate = &now
}

// Merge applies a client patch and stamps updatedAt.
func (p *StudyPlan) Merge(patch map[string]json.RawMessage, now time.Time) error {
	if err := p.ApplyFields(patch); err != nil {
		return err
	}
	p.UpdatedAt = &now
	return nil
}

// ApplyFields copies client fields onto the plan. Protected fields are
// ignored, progress is clamped, a JSON null removes a client-defined field.
func (p *StudyPlan) ApplyFields(patch map[string]json.RawMessage) error {
	for key, value := range patch {
		if _, protected := studyPlanProtected[key]; protected {
			continue
		}
		switch key {
		case "userName":
			if err := json.Unmarshal(value, &p.UserName); err != nil {
				return fmt.Errorf("userName: %w", err)
			}
		case "title":
			if err := json.Unmarshal(value, &p.Title); err != nil {
				return fmt.Errorf("title: %w", err)
			}
		case "progress":
			var progress float64
			if err := json.Unmarshal(value, &progress); err != nil {
				return fmt.Errorf("progress: %w", err)
			}
			p.Progress = ClampProgress(progress)
		default:
			if string(value) == "null" {
				delete(p.Extra, key)
				continue
			}
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[key] = value
		}
	}
	return nil
}

// ClampProgress rounds to the nearest integer and clamps to [0,100].
func ClampProgress(value float64) int {
	if math.IsNaN(value) {
		return MinProgress
	}
	rounded := math.Round(value)
	if rounded < MinProgress {
		return MinProgress
	}
	if rounded > MaxProgress {
		return MaxProgress
	}
	return int(rounded)
}
