package model

// QuestionSet messages returned when no set id is available for today.
const (
	QuestionSetNotReady   = "QUESTION_SET_NOT_READY"
	DocumentNotCreatedYet = "DOCUMENT_NOT_CREATED_YET"
)

// DocumentRef is the short document reference embedded in a question.
type DocumentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Question is a single generated quiz item.
type Question struct {
	ID       int64       `json:"id"`
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Category Category    `json:"category"`
	Document DocumentRef `json:"document"`
}

// QuestionSetStatus answers "is there a quiz for today". QuestionSetID is empty
// when Message explains why not.
type QuestionSetStatus struct {
	QuestionSetID string `json:"questionSetId"`
	Message       string `json:"message"`
}

// QuestionSet is a server-computed daily collection of questions.
type QuestionSet struct {
	Questions []Question `json:"questions"`
}
