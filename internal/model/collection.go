package model

// Collection names one persisted JSON document.
type Collection string

const (
	CollectionTodos       Collection = "todos"
	CollectionStudyPlans  Collection = "studyPlans"
	CollectionChatHistory Collection = "chatHistory"
)

// AllCollections lists every collection in boot/initialisation order.
var AllCollections = []Collection{CollectionTodos, CollectionStudyPlans, CollectionChatHistory}

// FileName is the document name under the data directory.
func (c Collection) FileName() string {
	switch c {
	case CollectionTodos:
		return "todolist.json"
	case CollectionStudyPlans:
		return "studyplans.json"
	case CollectionChatHistory:
		return "chathistory.json"
	}
	return string(c) + ".json"
}

func (c Collection) String() string {
	return string(c)
}
