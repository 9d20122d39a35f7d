// Package todoist implements the task sink against the Todoist REST v2 API.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"todosync/internal/model"
)

// DefaultBaseURL is the production Todoist REST endpoint.
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

// Client creates tasks via the Todoist REST v2 API. Each request carries a
// fresh X-Request-Id so Todoist can drop retransmits on its side.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type createTaskRequest struct {
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	DueDatetime string `json:"due_datetime"`
}

type createTaskResponse struct {
	ID string `json:"id"`
}

// CreateTask creates a single task and returns its Todoist ID. A non-2xx
// response is an error; the caller decides whether to retry on a later run.
func (c *Client) CreateTask(ctx context.Context, task model.Task) (string, error) {
	if c.token == "" {
		return "", errors.New("todoist API token is empty")
	}

	payload := createTaskRequest{
		Content:     task.Title,
		Description: task.Description,
		DueDatetime: task.Due.Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("todoist create task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("todoist create task: %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var created createTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("todoist create task: decoding response: %w", err)
	}

	log.Debug().Str("task_id", created.ID).Str("content", task.Title).Msg("todoist task created")
	return created.ID, nil
}
