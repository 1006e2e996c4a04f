// Package control defines the agent control-plane message types: what
// a server would send an agent to start or stop a probe, and what the
// agent sends back. The transport carrying these (WebSocket, in the
// original) is out of scope here; only the wire-shaped Go types and
// the in-process state they drive are provided.
package control

import (
	"encoding/json"
	"fmt"

	"github.com/0b01/tail2-go/pkg/probe"
)

// Kind discriminates the AgentMessage tagged union.
type Kind string

const (
	KindAddProbe  Kind = "add_probe"
	KindStopProbe Kind = "stop_probe"
	KindHalt      Kind = "halt"
	KindAgentError Kind = "agent_error"
)

// AgentMessage is the closed set of messages exchanged between a
// server and an agent: add or remove a probe, halt the agent
// entirely, or report an error back to the server.
type AgentMessage struct {
	Kind    Kind
	Probe   probe.Probe
	Message string
}

func AddProbe(p probe.Probe) AgentMessage {
	return AgentMessage{Kind: KindAddProbe, Probe: p}
}

func StopProbe(p probe.Probe) AgentMessage {
	return AgentMessage{Kind: KindStopProbe, Probe: p}
}

func Halt() AgentMessage {
	return AgentMessage{Kind: KindHalt}
}

func AgentErrorf(format string, args ...any) AgentMessage {
	return AgentMessage{Kind: KindAgentError, Message: fmt.Sprintf(format, args...)}
}

// wireMessage is the JSON shape on the wire: a "type" discriminant
// plus whichever of the variant's fields apply.
type wireMessage struct {
	Type    Kind         `json:"type"`
	Probe   *probe.Probe `json:"probe,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (m AgentMessage) MarshalJSON() ([]byte, error) {
	w := wireMessage{Type: m.Kind, Message: m.Message}
	if m.Kind == KindAddProbe || m.Kind == KindStopProbe {
		p := m.Probe
		w.Probe = &p
	}
	return json.Marshal(w)
}

func (m *AgentMessage) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Type {
	case KindAddProbe, KindStopProbe, KindHalt, KindAgentError:
	default:
		return fmt.Errorf("control: unknown message type %q", w.Type)
	}
	m.Kind = w.Type
	m.Message = w.Message
	if w.Probe != nil {
		m.Probe = *w.Probe
	}
	return nil
}

func (m AgentMessage) String() string {
	switch m.Kind {
	case KindAddProbe:
		return fmt.Sprintf("add_probe(%s)", m.Probe)
	case KindStopProbe:
		return fmt.Sprintf("stop_probe(%s)", m.Probe)
	case KindHalt:
		return "halt"
	case KindAgentError:
		return fmt.Sprintf("agent_error(%s)", m.Message)
	default:
		return "invalid message"
	}
}
