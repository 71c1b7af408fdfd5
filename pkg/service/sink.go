package service

import (
	"github.com/charmbracelet/log"
	"github.com/suriyel/AgentFramework/pkg/service/sse"
	"github.com/suriyel/AgentFramework/pkg/task"
)

// SnapshotEvent is the envelope broadcast for every committed transition.
type SnapshotEvent struct {
	Type string      `json:"type"`
	Task *task.State `json:"task"`
}

/*
BrokerSink adapts the SSE broker to the engine's snapshot sink. Broadcast
never blocks, so publishing from the orchestrator loop is safe.
*/
type BrokerSink struct {
	broker *sse.Broker
}

func NewBrokerSink(broker *sse.Broker) *BrokerSink {
	return &BrokerSink{broker: broker}
}

func (s *BrokerSink) Publish(snapshot *task.State) {
	if err := s.broker.Broadcast(SnapshotEvent{Type: "task.snapshot", Task: snapshot}); err != nil {
		log.Error("snapshot broadcast failed", "task", snapshot.ID, "error", err)
	}
}
