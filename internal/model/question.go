package model

// Question is one multiple-choice question from a question set file.
type Question struct {
	ID              string   `json:"id"`
	Subject         string   `json:"subject,omitempty"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correctOptionId"`
}

// Option is a selectable answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionFileInfo describes one listed question set file.
type QuestionFileInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Size         int64  `json:"size"`
	LastModified string `json:"lastModified"`
}

// ExamConfig is the active-question-set record (exam-config.json).
type ExamConfig struct {
	ActiveQuestionFile string `json:"activeQuestionFile"`
	LastUpdated        string `json:"lastUpdated"`
}

// ActiveQuestionFile is the get-active-question-file response body.
// SetAt is null when the default applies.
type ActiveQuestionFile struct {
	ActiveFile string  `json:"activeFile"`
	SetAt      *string `json:"setAt"`
	IsDefault  bool    `json:"isDefault"`
	Warning    string  `json:"warning,omitempty"`
}

// SetActiveFileRequest selects a question set file as active.
type SetActiveFileRequest struct {
	FileName string `json:"fileName"`
}
