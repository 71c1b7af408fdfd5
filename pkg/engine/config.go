package engine

import "time"

/*
Config carries the engine's operational limits. The zero value is not
usable; construct one with DefaultConfig and override fields as needed.
*/
type Config struct {
	// MaxRetry is the default per-step retry budget. A step gets
	// MaxRetry+1 total attempts unless its tool overrides the budget.
	MaxRetry int
	// ToolTimeout bounds a single tool invocation when the tool declares
	// no timeout of its own.
	ToolTimeout time.Duration
	// PlannerTimeout bounds the plan-building call.
	PlannerTimeout time.Duration
	// MaxPlanSteps rejects runaway plans at normalization time.
	MaxPlanSteps int
	// KnowledgeLimit caps how many retrieved snippets accompany the
	// planning prompt.
	KnowledgeLimit int
}

func DefaultConfig() Config {
	return Config{
		MaxRetry:       3,
		ToolTimeout:    60 * time.Second,
		PlannerTimeout: 120 * time.Second,
		MaxPlanSteps:   20,
		KnowledgeLimit: 3,
	}
}
