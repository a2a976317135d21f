package core

import (
	"errors"

	"github.com/oedokumaci/catalogsync/schema"
)

// Phase is the lifecycle phase of a controller.
type Phase int

// All controller phases.
const (
	Idle            Phase = iota // nothing loaded yet
	Hydrating                    // reading the local cache
	Loaded                       // a snapshot is current
	LoadedWithError              // the last cycle reported an error
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Hydrating:
		return "hydrating"
	case Loaded:
		return "loaded"
	case LoadedWithError:
		return "loaded_with_error"
	default:
		return "unknown"
	}
}

// State is the consumer-visible view of a controller.
// Snapshot entries are shared and must not be mutated.
type State struct {
	Phase    Phase
	Snapshot *schema.Snapshot
	Err      *schema.DomainError
	Loading  bool // true iff there is neither a snapshot nor an error
}

// eventKind enumerates the inputs of the reducer.
type eventKind int

const (
	evHydrateStart eventKind = iota
	evHydrateMiss
	evCacheHit
	evFetchSuccess
	evFetchDomainError
	evFetchFailure
)

// event is one message fed into reduce.
type event struct {
	kind     eventKind
	snapshot *schema.Snapshot
	err      error
}

// newState returns the initial state.
func newState() State {
	return State{Phase: Idle, Loading: true}
}

// reduce is the only place where controller state changes.
func reduce(s State, ev event, policy schema.ErrorPolicy) State {
	switch ev.kind {
	case evHydrateStart:
		if s.Phase == Idle {
			s.Phase = Hydrating
		}

	case evHydrateMiss:
		if s.Phase == Hydrating {
			s.Phase = Idle
		}

	case evCacheHit:
		// A cached snapshot only fills an empty view; network results always win.
		if s.Snapshot != nil || ev.snapshot == nil {
			if s.Phase == Hydrating {
				s.Phase = Idle
			}
			break
		}
		s.Snapshot = ev.snapshot
		s.Phase = Loaded
		if s.Err != nil {
			s.Phase = LoadedWithError
		}

	case evFetchSuccess:
		s.Snapshot = ev.snapshot
		s.Err = nil
		s.Phase = Loaded

	case evFetchDomainError:
		var derr *schema.DomainError
		if !errors.As(ev.err, &derr) {
			return reduce(s, event{kind: evFetchFailure, err: ev.err}, policy)
		}
		s.Err = derr
		s.Phase = LoadedWithError

	case evFetchFailure:
		if policy != schema.SurfaceErrors || ev.err == nil {
			break
		}
		s.Err = &schema.DomainError{TypeName: schema.ClientErrorType, Message: ev.err.Error()}
		s.Phase = LoadedWithError
	}

	s.Loading = s.Snapshot == nil && s.Err == nil
	return s
}
