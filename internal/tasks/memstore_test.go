package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskly/internal/models"
)

var errUnavailable = errors.New("service unavailable")

// memStore is an in-memory Store that counts calls and can be told to fail.
type memStore struct {
	mu    sync.Mutex
	rows  []models.Task // insertion order
	next  int
	clock time.Time
	fail  map[string]error
	calls map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *memStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *memStore) enter(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.fail[op]
}

func (s *memStore) ListTasks(_ context.Context, ownerID string) ([]models.Task, error) {
	if err := s.enter("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].OwnerID == ownerID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *memStore) CreateTask(_ context.Context, ownerID, description string) (models.Task, error) {
	if err := s.enter("create"); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.clock = s.clock.Add(time.Second)
	t := models.Task{
		ID:          fmt.Sprintf("task-%d", s.next),
		Description: description,
		Status:      models.StatusPending,
		CreatedAt:   s.clock,
		OwnerID:     ownerID,
	}
	s.rows = append(s.rows, t)
	return t, nil
}

func (s *memStore) update(ownerID, id string, fn func(*models.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].OwnerID == ownerID {
			fn(&s.rows[i])
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *memStore) UpdateTaskStatus(_ context.Context, ownerID, id string, status models.Status) error {
	if err := s.enter("update status"); err != nil {
		return err
	}
	return s.update(ownerID, id, func(t *models.Task) { t.Status = status })
}

func (s *memStore) UpdateTaskDescription(_ context.Context, ownerID, id, description string) error {
	if err := s.enter("update description"); err != nil {
		return err
	}
	return s.update(ownerID, id, func(t *models.Task) { t.Description = description })
}

func (s *memStore) DeleteTask(_ context.Context, ownerID, id string) error {
	if err := s.enter("delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].OwnerID == ownerID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

// noticeLog collects notices for assertions.
type noticeLog struct {
	notices []Notice
}

func (n *noticeLog) add(notice Notice) { n.notices = append(n.notices, notice) }

func (n *noticeLog) last() Notice {
	if len(n.notices) == 0 {
		return Notice{}
	}
	return n.notices[len(n.notices)-1]
}

// drain runs requests one at a time, resolving each result and following up
// with whatever the controller asks for next.
func drain(t *testing.T, c *Controller, reqs ...Request) {
	t.Helper()
	ctx := context.Background()
	for len(reqs) > 0 {
		req := reqs[0]
		reqs = append(reqs[1:], c.Resolve(req.Do(ctx))...)
	}
}

// signedIn returns a controller for owner with its first refresh done.
func signedIn(t *testing.T, store Store, owner string) (*Controller, *noticeLog) {
	t.Helper()
	log := &noticeLog{}
	c := NewController(store, log.add)
	drain(t, c, c.SetOwner(owner)...)
	require.True(t, c.Loaded())
	return c, log
}

func create(t *testing.T, c *Controller, text string) {
	t.Helper()
	req, err := c.Submit(text)
	require.NoError(t, err)
	drain(t, c, req)
}
