// Package client is the exam application's HTTP client for the submission
// API. Every call is bounded by the client timeout so a hung connection
// fails the attempt instead of stalling the retry state machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maruf7705/80MCQ/internal/model"
)

// DefaultTimeout bounds one API round-trip.
const DefaultTimeout = 15 * time.Second

// Client talks to the exam platform server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL. timeout <= 0 uses
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// APIError carries a non-2xx response with the server's message text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
		}
	}
	return nil
}

// Health probes the server, used by the reconnect watcher.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil)
}

// SaveSubmission delivers a graded exam result.
func (c *Client) SaveSubmission(ctx context.Context, sub model.Submission) (model.SaveSubmissionResult, error) {
	var result model.SaveSubmissionResult
	err := c.postJSON(ctx, "/api/save-answer", sub, &result)
	return result, err
}

// DeleteSubmission removes one stored submission.
func (c *Client) DeleteSubmission(ctx context.Context, studentName, timestamp string) error {
	return c.postJSON(ctx, "/api/delete-answer",
		model.DeleteSubmissionRequest{StudentName: studentName, Timestamp: timestamp}, nil)
}

// DeleteStudent removes every submission for a student.
func (c *Client) DeleteStudent(ctx context.Context, studentName string) error {
	return c.postJSON(ctx, "/api/delete-student",
		model.DeleteStudentRequest{StudentName: studentName}, nil)
}

// SavePendingStudent sends a heartbeat. A zero ts lets the server stamp it.
func (c *Client) SavePendingStudent(ctx context.Context, studentName string, ts time.Time) error {
	req := model.SavePendingRequest{StudentName: studentName}
	if !ts.IsZero() {
		req.Timestamp = ts.UTC().Format(time.RFC3339)
	}
	return c.postJSON(ctx, "/api/save-pending-student", req, nil)
}

// RemovePendingStudent drops the student from the pending list.
func (c *Client) RemovePendingStudent(ctx context.Context, studentName string) error {
	return c.postJSON(ctx, "/api/remove-pending-student",
		model.RemovePendingRequest{StudentName: studentName}, nil)
}

// ListQuestionFiles returns the available question sets.
func (c *Client) ListQuestionFiles(ctx context.Context) ([]model.QuestionFileInfo, error) {
	var payload struct {
		Files []model.QuestionFileInfo `json:"files"`
	}
	err := c.getJSON(ctx, "/api/list-question-files", &payload)
	return payload.Files, err
}

// ActiveQuestionFile returns the currently active question set.
func (c *Client) ActiveQuestionFile(ctx context.Context) (model.ActiveQuestionFile, error) {
	var active model.ActiveQuestionFile
	err := c.getJSON(ctx, "/api/get-active-question-file", &active)
	return active, err
}

// SetActiveQuestionFile selects a question set as active.
func (c *Client) SetActiveQuestionFile(ctx context.Context, fileName string) error {
	return c.postJSON(ctx, "/api/set-active-question-file",
		model.SetActiveFileRequest{FileName: fileName}, nil)
}

// Submissions returns all stored submissions (admin aggregation).
func (c *Client) Submissions(ctx context.Context) ([]model.Submission, error) {
	var subs []model.Submission
	err := c.getJSON(ctx, "/api/answers", &subs)
	return subs, err
}

// PendingStudents returns the students currently mid-exam.
func (c *Client) PendingStudents(ctx context.Context) ([]model.PendingStudent, error) {
	var pending []model.PendingStudent
	err := c.getJSON(ctx, "/api/pending-students", &pending)
	return pending, err
}
