package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides at fire time whether a transition applies
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transitions and stamps out machines
type StateMachineBuilder interface {
	Configure(state State) StateConfiguration
	Build(initialState State) StateMachine
}

// StateConfiguration adds the outgoing transitions of one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

// rules maps a source state to its edges per trigger. Guarded edges are tried
// in the order they were permitted.
type rules map[State]map[Trigger][]edge

func (r rules) clone() rules {
	out := make(rules, len(r))
	for from, byTrigger := range r {
		copied := make(map[Trigger][]edge, len(byTrigger))
		for trigger, edges := range byTrigger {
			copied[trigger] = append([]edge(nil), edges...)
		}
		out[from] = copied
	}
	return out
}

type builder struct {
	rules rules
}

type stateRules struct {
	from  State
	rules rules
}

// NewBuilder creates an empty builder. Machines built from it take a snapshot
// of the rules, so later Configure calls do not affect them.
func NewBuilder() StateMachineBuilder {
	return &builder{rules: make(rules)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("workflow: configure unknown state %q", state))
	}
	if b.rules[state] == nil {
		b.rules[state] = make(map[Trigger][]edge)
	}
	return &stateRules{from: state, rules: b.rules}
}

func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("workflow: build from unknown state %q", initialState))
	}
	return &stateMachine{current: initialState, rules: b.rules.clone()}
}

func (c *stateRules) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateRules) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("workflow: permit to unknown state %q", toState))
	}
	c.rules[c.from][trigger] = append(c.rules[c.from][trigger], edge{to: toState, guard: guard})
	return c
}

type stateMachine struct {
	current State
	rules   rules
}

func (m *stateMachine) State() State {
	return m.current
}

// CanFire ignores guards; they need the context passed to Fire.
func (m *stateMachine) CanFire(trigger Trigger) bool {
	return len(m.rules[m.current][trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	edges := m.rules[m.current][trigger]
	if len(edges) == 0 {
		return fmt.Errorf("%w: %s not permitted in %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, e := range edges {
		if e.guard == nil || e.guard(ctx) {
			m.current = e.to
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrGuardFailed, trigger, m.current)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	triggers := []Trigger{}
	for _, trigger := range PermittedOrder {
		if m.CanFire(trigger) {
			triggers = append(triggers, trigger)
		}
	}
	return triggers
}

func (m *stateMachine) TriggerFor(target State) (Trigger, bool) {
	for _, trigger := range PermittedOrder {
		for _, e := range m.rules[m.current][trigger] {
			if e.to == target {
				return trigger, true
			}
		}
	}
	return "", false
}
