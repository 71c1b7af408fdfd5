package stores

import (
	"context"
	"sort"
	"sync"

	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/task"
)

/*
InMemoryTaskStore is the default TaskStore. It keeps deep copies on both
sides of every call: callers can keep mutating the state they passed in, and
readers can do whatever they like with what they got back.
*/
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*task.State
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[string]*task.State)}
}

func (s *InMemoryTaskStore) Get(ctx context.Context, id string) (*task.State, *errors.RpcError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.tasks[id]
	if !ok {
		return nil, errors.ErrTaskNotFound.WithMessagef("task %s not found", id)
	}
	return state.Clone(), nil
}

func (s *InMemoryTaskStore) List(ctx context.Context) ([]*task.State, *errors.RpcError) {
	s.mu.RLock()
	out := make([]*task.State, 0, len(s.tasks))
	for _, state := range s.tasks {
		out = append(out, state.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryTaskStore) Create(ctx context.Context, state *task.State) *errors.RpcError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[state.ID]; ok {
		return errors.ErrTaskExists.WithMessagef("task %s already exists", state.ID)
	}
	s.tasks[state.ID] = state.Clone()
	return nil
}

func (s *InMemoryTaskStore) Update(ctx context.Context, state *task.State) *errors.RpcError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[state.ID]; !ok {
		return errors.ErrTaskNotFound.WithMessagef("task %s not found", state.ID)
	}
	// Single atomic replace per transition; readers never see a mix of old
	// and new fields.
	s.tasks[state.ID] = state.Clone()
	return nil
}

func (s *InMemoryTaskStore) Delete(ctx context.Context, id string) *errors.RpcError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return errors.ErrTaskNotFound.WithMessagef("task %s not found", id)
	}
	delete(s.tasks, id)
	return nil
}

var _ TaskStore = (*InMemoryTaskStore)(nil)
