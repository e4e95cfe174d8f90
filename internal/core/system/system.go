package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain request queues
	PhaseOutput               // 1: events, mirrors, flush
	PhasePersist              // 2: batch save
	PhaseCleanup              // 3: destroy queued entities
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
