// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"zaakbrug_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Forwarding Domain Events
// =============================================================================

// ZaakForwarded is published when a submission has been fully projected
// into the Zaken API: zaak, rol, and all documents present.
type ZaakForwarded struct {
	BaseEvent
	SubmissionKey string `json:"submissionKey"`
	ZaakURL       string `json:"zaakUrl"`
	Reused        bool   `json:"reused"`
}

func (e ZaakForwarded) EventName() string { return "forwarder.zaak.forwarded" }

// ZaakForwardingFailed is published when an invocation fails. Exhausted
// means the task queue will not redeliver; operators must step in.
type ZaakForwardingFailed struct {
	BaseEvent
	SubmissionKey string `json:"submissionKey"`
	StateReached  string `json:"stateReached"`
	Error         string `json:"error"`
	Exhausted     bool   `json:"exhausted"`
}

func (e ZaakForwardingFailed) EventName() string { return "forwarder.zaak.forwarding_failed" }
