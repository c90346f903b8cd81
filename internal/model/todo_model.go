package model

import "encoding/json"

// Todo is one entry of the shared todo list. Fields the client adds beyond the
// typed ones are kept in Extra and written back untouched.
type Todo struct {
	ID     string                     `json:"id"`
	UserID string                     `json:"userId" validate:"required"`
	Text   string                     `json:"text"`
	Done   bool                       `json:"done"`
	Extra  map[string]json.RawMessage `json:"-"`
}

var todoFields = keySet("id", "userId", "text", "done")

type todoAlias Todo

func (t *Todo) UnmarshalJSON(data []byte) error {
	var a todoAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extras, err := collectExtras(data, todoFields)
	if err != nil {
		return err
	}
	*t = Todo(a)
	t.Extra = extras
	return nil
}

func (t Todo) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(todoAlias(t))
	if err != nil {
		return nil, err
	}
	return mergeExtras(base, t.Extra)
}

// BelongsTo reports whether the todo is owned by userID.
func (t Todo) BelongsTo(userID string) bool {
	return t.UserID == userID
}
