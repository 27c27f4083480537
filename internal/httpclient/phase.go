package httpclient

import "time"

// Phase is a step in a request's lifecycle:
//
//	idle -> sent -> (retry-wait -> sent)* -> success | failed
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSent
	PhaseRetryWait
	PhaseSuccess
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSent:
		return "sent"
	case PhaseRetryWait:
		return "retry-wait"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PhaseEvent is passed to an Observer on every phase transition.
type PhaseEvent struct {
	RequestID string
	Method    string
	URL       string
	Phase     Phase
	Attempt   int
	Status    int
	Delay     time.Duration
	Cached    bool
}

// Observer receives phase transitions. It is called synchronously from the
// requesting goroutine and must not block.
type Observer func(PhaseEvent)
