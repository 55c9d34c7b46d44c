package api

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/taskhub/platform/internal/core/domain"
)

// In-memory stores standing in for Mongo and Redis in router tests.

type memUsers struct {
	mu     sync.Mutex
	byName map[string]domain.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byName: make(map[string]domain.User)}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.Username]; ok {
		return nil, domain.ErrUserExists
	}
	m.nextID++
	stored := *u
	stored.ID = m.nextID
	m.byName[stored.Username] = stored
	return &stored, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.byName))
	for _, u := range m.byName {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, u := range m.byName {
		if u.ID == id {
			delete(m.byName, name)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type memTasks struct {
	mu     sync.Mutex
	byID   map[int64]domain.Task
	nextID int64
}

func newMemTasks() *memTasks {
	return &memTasks{byID: make(map[int64]domain.Task)}
}

func (m *memTasks) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *t
	stored.ID = m.nextID
	m.byID[stored.ID] = stored
	return &stored, nil
}

func (m *memTasks) FindByID(_ context.Context, id, userID int64) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (m *memTasks) ListByUser(_ context.Context, userID int64) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Task
	for _, t := range m.byID {
		if t.UserID == userID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTasks) Update(_ context.Context, t *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[t.ID]
	if !ok || existing.UserID != t.UserID {
		return nil, domain.ErrTaskNotFound
	}
	m.byID[t.ID] = *t
	out := *t
	return &out, nil
}

func (m *memTasks) Delete(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return domain.ErrTaskNotFound
	}
	delete(m.byID, id)
	return nil
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]int64
}

func newMemIdem() *memIdem {
	return &memIdem{keys: make(map[string]int64)}
}

func (m *memIdem) Reserve(_ context.Context, userID int64, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := fmt.Sprintf("%d:%s", userID, key)
	if id, ok := m.keys[k]; ok {
		return id, false, nil
	}
	m.keys[k] = 0
	return 0, true, nil
}

func (m *memIdem) Complete(_ context.Context, userID int64, key string, taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[fmt.Sprintf("%d:%s", userID, key)] = taskID
	return nil
}

func (m *memIdem) Release(_ context.Context, userID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, fmt.Sprintf("%d:%s", userID, key))
	return nil
}
