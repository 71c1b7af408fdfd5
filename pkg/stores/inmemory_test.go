package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/task"
)

func TestInMemoryCreateAndGet(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	state := task.New("do a thing", "conv")
	assert.Nil(t, store.Create(ctx, state))

	got, rpcErr := store.Get(ctx, state.ID)
	assert.Nil(t, rpcErr)
	assert.Equal(t, state.ID, got.ID)
	assert.Equal(t, "do a thing", got.UserInput)
}

func TestInMemoryCreateDuplicate(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	state := task.New("dup", "")
	assert.Nil(t, store.Create(ctx, state))

	rpcErr := store.Create(ctx, state)
	assert.NotNil(t, rpcErr)
	assert.Equal(t, errors.ErrTaskExists.Code, rpcErr.Code)
}

func TestInMemoryGetUnknown(t *testing.T) {
	store := NewInMemoryTaskStore()

	_, rpcErr := store.Get(context.Background(), "nope")
	assert.NotNil(t, rpcErr)
	assert.Equal(t, errors.ErrTaskNotFound.Code, rpcErr.Code)
}

func TestInMemoryReadIsolation(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	state := task.New("isolate", "")
	state.Context["key"] = "original"
	assert.Nil(t, store.Create(ctx, state))

	// Mutating the caller's copy after Create must not affect the store.
	state.Context["key"] = "mutated"

	got, _ := store.Get(ctx, state.ID)
	assert.Equal(t, "original", got.Context["key"])

	// Mutating a read result must not affect later reads.
	got.Context["key"] = "mutated again"
	again, _ := store.Get(ctx, state.ID)
	assert.Equal(t, "original", again.Context["key"])
}

func TestInMemoryUpdateReplaces(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	state := task.New("update me", "")
	assert.Nil(t, store.Create(ctx, state))

	state.ToStatus(task.StatusRunning)
	state.Plan = []task.Step{task.NewStep("first")}
	assert.Nil(t, store.Update(ctx, state))

	got, _ := store.Get(ctx, state.ID)
	assert.Equal(t, task.StatusRunning, got.Status)
	assert.Len(t, got.Plan, 1)
}

func TestInMemoryUpdateUnknown(t *testing.T) {
	store := NewInMemoryTaskStore()

	rpcErr := store.Update(context.Background(), task.New("ghost", ""))
	assert.NotNil(t, rpcErr)
	assert.Equal(t, errors.ErrTaskNotFound.Code, rpcErr.Code)
}

func TestInMemoryListOrdered(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	first := task.New("first", "")
	second := task.New("second", "")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	assert.Nil(t, store.Create(ctx, second))
	assert.Nil(t, store.Create(ctx, first))

	list, rpcErr := store.List(ctx)
	assert.Nil(t, rpcErr)
	assert.Len(t, list, 2)
	assert.Equal(t, "first", list[0].UserInput)
	assert.Equal(t, "second", list[1].UserInput)
}

func TestInMemoryDelete(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	state := task.New("delete me", "")
	assert.Nil(t, store.Create(ctx, state))
	assert.Nil(t, store.Delete(ctx, state.ID))

	_, rpcErr := store.Get(ctx, state.ID)
	assert.NotNil(t, rpcErr)

	rpcErr = store.Delete(ctx, state.ID)
	assert.NotNil(t, rpcErr)
	assert.Equal(t, errors.ErrTaskNotFound.Code, rpcErr.Code)
}
