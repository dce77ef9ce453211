package remote

import (
	"context"
	"net/url"

	"github.com/tgienger/taskly/internal/api"
	"github.com/tgienger/taskly/internal/models"
)

// Credentials supplies the access token for a given owner.
type Credentials interface {
	Token(ownerID string) (string, error)
}

// TaskStore is the remote task table. It implements tasks.Store.
type TaskStore struct {
	client *Client
	creds  Credentials
}

// TaskStore returns a store whose calls authenticate with creds.
func (c *Client) TaskStore(creds Credentials) *TaskStore {
	return &TaskStore{client: c, creds: creds}
}

// ListTasks fetches the owner's tasks, newest first.
func (s *TaskStore) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	token, err := s.creds.Token(ownerID)
	if err != nil {
		return nil, err
	}

	var resp api.TaskListResponse
	a := s.client.http.Get(s.client.url("/api/v1/tasks"))
	if err := s.client.do(ctx, a, token, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = []models.Task{}
	}
	return resp.Items, nil
}

// CreateTask inserts a pending task.
func (s *TaskStore) CreateTask(ctx context.Context, ownerID, description string) (models.Task, error) {
	token, err := s.creds.Token(ownerID)
	if err != nil {
		return models.Task{}, err
	}

	var task models.Task
	a := s.client.http.Post(s.client.url("/api/v1/tasks")).
		JSON(api.CreateTaskRequest{Description: description})
	if err := s.client.do(ctx, a, token, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTaskStatus sets a task's status.
func (s *TaskStore) UpdateTaskStatus(ctx context.Context, ownerID, id string, status models.Status) error {
	return s.patch(ctx, ownerID, id, api.UpdateTaskRequest{Status: &status})
}

// UpdateTaskDescription replaces a task's description.
func (s *TaskStore) UpdateTaskDescription(ctx context.Context, ownerID, id, description string) error {
	return s.patch(ctx, ownerID, id, api.UpdateTaskRequest{Description: &description})
}

// DeleteTask removes a task.
func (s *TaskStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	token, err := s.creds.Token(ownerID)
	if err != nil {
		return err
	}
	a := s.client.http.Delete(s.taskURL(id))
	return s.client.do(ctx, a, token, nil)
}

func (s *TaskStore) patch(ctx context.Context, ownerID, id string, body api.UpdateTaskRequest) error {
	token, err := s.creds.Token(ownerID)
	if err != nil {
		return err
	}
	a := s.client.http.Patch(s.taskURL(id)).JSON(body)
	return s.client.do(ctx, a, token, nil)
}

func (s *TaskStore) taskURL(id string) string {
	return s.client.url("/api/v1/tasks/" + url.PathEscape(id))
}
