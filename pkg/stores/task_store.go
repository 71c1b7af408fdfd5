package stores

import (
	"context"

	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/task"
)

/*
TaskStore persists task state between orchestrator transitions. Every write
is an atomic replace of the whole record and every read returns a detached
copy, so concurrent readers observe consistent snapshots and never a
half-applied transition.
*/
type TaskStore interface {
	Get(ctx context.Context, id string) (*task.State, *errors.RpcError)
	List(ctx context.Context) ([]*task.State, *errors.RpcError)
	Create(ctx context.Context, state *task.State) *errors.RpcError
	Update(ctx context.Context, state *task.State) *errors.RpcError
	Delete(ctx context.Context, id string) *errors.RpcError
}
