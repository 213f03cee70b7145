package model

// Submission is one graded exam result as stored in answers.json.
// Records are immutable after creation; admin deletion is the only mutation.
type Submission struct {
	StudentName  string             `json:"studentName" binding:"required"`
	Answers      map[string]string  `json:"answers"`
	Score        float64            `json:"score"`
	TotalMarks   float64            `json:"totalMarks"`
	Correct      int                `json:"correct"`
	Wrong        int                `json:"wrong"`
	Attempted    int                `json:"attempted"`
	Pass         bool               `json:"pass"`
	Timestamp    string             `json:"timestamp"`
	QuestionFile string             `json:"questionFile"`
	SubjectStats map[string]Subject `json:"subjectStats,omitempty"`
}

// Subject aggregates per-subject performance inside a submission.
type Subject struct {
	Correct    int `json:"correct"`
	Wrong      int `json:"wrong"`
	Attempted  int `json:"attempted"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// SaveSubmissionResult is the save-answer response body.
type SaveSubmissionResult struct {
	Success    bool   `json:"success"`
	SavedName  string `json:"savedName"`
	WasRenamed bool   `json:"wasRenamed"`
}

// DeleteSubmissionRequest deletes a single submission identified by
// studentName + timestamp.
type DeleteSubmissionRequest struct {
	StudentName string `json:"studentName" binding:"required"`
	Timestamp   string `json:"timestamp" binding:"required"`
}

// DeleteStudentRequest deletes every submission stored for a student.
type DeleteStudentRequest struct {
	StudentName string `json:"studentName" binding:"required"`
}
