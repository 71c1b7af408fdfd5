package engine

import "github.com/suriyel/AgentFramework/pkg/task"

/*
SnapshotSink receives a detached copy of the task state after every
committed transition. Implementations must not block the loop; the SSE
broker drops events for slow subscribers rather than applying backpressure.
*/
type SnapshotSink interface {
	Publish(snapshot *task.State)
}

// NopSink discards snapshots. Used when no event surface is wired.
type NopSink struct{}

func (NopSink) Publish(*task.State) {}

var _ SnapshotSink = NopSink{}
