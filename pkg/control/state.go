package control

import (
	"fmt"
	"sync"

	"github.com/0b01/tail2-go/pkg/probe"
)

// probeKey makes a Probe usable as a map key; Probe itself contains
// only comparable fields, but keying on its String() form keeps this
// independent of the struct's field set.
type probeKey = string

func keyOf(p probe.Probe) probeKey {
	return p.String()
}

// Attachment is whatever attaching a probe returns — typically
// *probe.Attachment, kept as an interface so AgentState doesn't need
// to import the BPF program type it was attached with.
type Attachment interface {
	Close() error
}

// AgentState tracks which probes an agent currently has attached and
// applies incoming AgentMessages to that set, the in-process analogue
// of the original AgentConfig/WsAgent message loop.
type AgentState struct {
	mu       sync.Mutex
	attached map[probeKey]Attachment
	halted   bool
}

func NewAgentState() *AgentState {
	return &AgentState{attached: make(map[probeKey]Attachment)}
}

// Attached reports whether a probe is currently running.
func (s *AgentState) Attached(p probe.Probe) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attached[keyOf(p)]
	return ok
}

// Apply processes one incoming message, calling attach to create a
// new Attachment for AddProbe messages that aren't already running.
// It returns the response message to send back to the server.
func (s *AgentState) Apply(msg AgentMessage, attach func(probe.Probe) (Attachment, error)) AgentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Kind {
	case KindAddProbe:
		key := keyOf(msg.Probe)
		if _, ok := s.attached[key]; ok {
			return AgentErrorf("probe already running: %s", msg.Probe)
		}
		a, err := attach(msg.Probe)
		if err != nil {
			return AgentErrorf("attaching %s: %v", msg.Probe, err)
		}
		s.attached[key] = a
		return msg

	case KindStopProbe:
		key := keyOf(msg.Probe)
		a, ok := s.attached[key]
		if !ok {
			return AgentErrorf("probe not running: %s", msg.Probe)
		}
		delete(s.attached, key)
		if err := a.Close(); err != nil {
			return AgentErrorf("detaching %s: %v", msg.Probe, err)
		}
		return msg

	case KindHalt:
		for key, a := range s.attached {
			a.Close()
			delete(s.attached, key)
		}
		s.halted = true
		return Halt()

	case KindAgentError:
		return AgentErrorf("unexpected agent_error echoed back: %s", msg.Message)

	default:
		return AgentErrorf("invalid message kind %q", msg.Kind)
	}
}

// Halted reports whether Halt has been processed.
func (s *AgentState) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Close detaches every currently-running probe.
func (s *AgentState) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for key, a := range s.attached {
		if err := a.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing %s: %w", key, err)
		}
		delete(s.attached, key)
	}
	return first
}
