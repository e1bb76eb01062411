package mind

import (
	"time"

	"github.com/collectivemind/mind/internal/election"
	"github.com/collectivemind/mind/internal/events"
)

// ThoughtEventType classifies an entry on the thought stream.
type ThoughtEventType string

const (
	ThoughtModeDispatch        ThoughtEventType = "mode_dispatch"
	ThoughtBreakerTransition   ThoughtEventType = "breaker_transition"
	ThoughtPathwayInhibition   ThoughtEventType = "pathway_inhibition"
	ThoughtDecompositionFailed ThoughtEventType = "decomposition_parse_failed"
	ThoughtCircularDependency  ThoughtEventType = "circular_dependency"
	ThoughtSynthesisFailed     ThoughtEventType = "synthesis_failed"
)

// ThoughtEvent is one entry on the Mind's thought stream (spec §6, §9:
// "Reactive subjects ... become language-appropriate lazy sequences or
// channels").
type ThoughtEvent struct {
	Type      ThoughtEventType
	Timestamp time.Time
	Pathway   string
	Message   string
}

// SubGoalEvent reports one completed sub-goal during decomposition (spec
// §4.6 step 4.3: "emit a SubGoalResult event").
type SubGoalEvent struct {
	GoalID      string
	PathwayUsed string
	Success     bool
	Duration    time.Duration
	Timestamp   time.Time
}

// ElectionEvent reports the outcome of one Ensemble election (spec §4.5,
// §6 election_events).
type ElectionEvent struct {
	Strategy        election.Strategy
	Winner          string
	MasterFailed    bool
	FellBackToWMaj  bool
	Timestamp       time.Time
}

// eventBuses groups the three observable streams a Mind publishes on.
// Non-blocking publish (spec §9) is inherited from events.Bus.
type eventBuses struct {
	thoughts  *events.Bus[ThoughtEvent]
	subGoals  *events.Bus[SubGoalEvent]
	elections *events.Bus[ElectionEvent]
}

func newEventBuses() *eventBuses {
	return &eventBuses{
		thoughts:  events.NewBus[ThoughtEvent](),
		subGoals:  events.NewBus[SubGoalEvent](),
		elections: events.NewBus[ElectionEvent](),
	}
}

func (b *eventBuses) publishThought(t ThoughtEventType, pathway, message string) {
	b.thoughts.Publish(ThoughtEvent{Type: t, Timestamp: time.Now(), Pathway: pathway, Message: message})
}

func (b *eventBuses) close() {
	b.thoughts.Close()
	b.subGoals.Close()
	b.elections.Close()
}
