package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// State is the fetch-cycle state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateExhausted State = "exhausted"
)

const (
	eventRequest = "request"
	eventMore    = "more"
	eventDrained = "drained"
	eventFail    = "fail"
	eventReset   = "reset"
)

// fetchCycle guards the idle -> fetching -> idle|exhausted cycle.
// Only one fetch can be in flight: request is not a valid event in fetching.
type fetchCycle struct {
	fsm *fsm.FSM
}

func newFetchCycle(onEnter func(from, to State)) *fetchCycle {
	events := fsm.Events{
		{Name: eventRequest, Src: []string{string(StateIdle), string(StateExhausted)}, Dst: string(StateFetching)},
		{Name: eventMore, Src: []string{string(StateFetching)}, Dst: string(StateIdle)},
		{Name: eventDrained, Src: []string{string(StateFetching)}, Dst: string(StateExhausted)},
		{Name: eventFail, Src: []string{string(StateFetching)}, Dst: string(StateIdle)},
		{Name: eventReset, Src: []string{string(StateFetching), string(StateExhausted)}, Dst: string(StateIdle)},
	}

	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = func(_ context.Context, e *fsm.Event) {
			onEnter(State(e.Src), State(e.Dst))
		}
	}

	return &fetchCycle{fsm: fsm.NewFSM(string(StateIdle), events, callbacks)}
}

func (c *fetchCycle) State() State {
	return State(c.fsm.Current())
}

// fire applies event. A self-transition is not an error.
// Transitions are in-memory and must not be abandoned halfway, so a
// cancelled ctx does not stop them.
func (c *fetchCycle) fire(ctx context.Context, event string) error {
	err := c.fsm.Event(context.WithoutCancel(ctx), event)
	if err == nil {
		return nil
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return fmt.Errorf("fetch cycle %s in state %s: %w", event, c.State(), err)
}

// canRequest reports whether a new fetch may start.
func (c *fetchCycle) canRequest() bool {
	return c.fsm.Can(eventRequest)
}

// reset returns to idle from any state.
func (c *fetchCycle) reset(ctx context.Context) error {
	if c.State() == StateIdle {
		return nil
	}
	return c.fire(ctx, eventReset)
}
