package doi

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State is the position of a DOI in the registration lifecycle.
type State string

const (
	StateDraft      State = "draft"
	StateRegistered State = "registered"
	StateFindable   State = "findable"
)

var allStates = []State{StateDraft, StateRegistered, StateFindable}

// Event is the authority-defined command that moves a DOI between states.
type Event string

const (
	EventRegister Event = "register"
	EventPublish  Event = "publish"
	EventHide     Event = "hide"
)

var allEvents = []Event{EventRegister, EventPublish, EventHide}

type transition struct {
	from State
	to   State
}

var transitionEvents = map[transition]Event{
	{from: StateDraft, to: StateFindable}:      EventPublish,
	{from: StateRegistered, to: StateFindable}: EventPublish,
	{from: StateDraft, to: StateRegistered}:    EventRegister,
	{from: StateFindable, to: StateRegistered}: EventHide,
}

var folder = cases.Lower(language.Und)

func foldName(value string) string {
	return folder.String(strings.TrimSpace(value))
}

// States returns every known state in lifecycle order.
func States() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// ParseState converts a state name, ignoring case and surrounding whitespace.
func ParseState(value string) (State, error) {
	name := foldName(value)
	for _, state := range allStates {
		if string(state) == name {
			return state, nil
		}
	}
	return "", fmt.Errorf("%w: state %q", ErrInvalidValue, value)
}

// ParseEvent converts an event name, ignoring case and surrounding whitespace.
func ParseEvent(value string) (Event, error) {
	name := foldName(value)
	for _, event := range allEvents {
		if string(event) == name {
			return event, nil
		}
	}
	return "", fmt.Errorf("%w: event %q", ErrInvalidValue, value)
}

// IsValid reports whether s is one of the known states.
func (s State) IsValid() bool {
	switch s {
	case StateDraft, StateRegistered, StateFindable:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// IsValid reports whether e is one of the known events.
func (e Event) IsValid() bool {
	switch e {
	case EventRegister, EventPublish, EventHide:
		return true
	}
	return false
}

func (e Event) String() string {
	return string(e)
}

// ResolveEvent returns the event that moves a DOI from current to desired.
// Pairs outside the transition table, including current == desired, return
// ErrInvalidTransition.
func ResolveEvent(current, desired State) (Event, error) {
	event, ok := transitionEvents[transition{from: current, to: desired}]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, desired)
	}
	return event, nil
}
