package forwarder

import "zaakbrug_backend/internal/zgw"

// State enumerates the steps of one forwarding invocation. The current
// state's action runs, then nextState picks the successor from the
// snapshot; Done is terminal.
type State int

const (
	StateIdempotencyCheck State = iota
	StateCreateOrReuse
	StateEnsureStatus
	StateEnsureRole
	StateEnsureDocuments
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdempotencyCheck:
		return "idempotency-check"
	case StateCreateOrReuse:
		return "create-or-reuse"
	case StateEnsureStatus:
		return "ensure-status"
	case StateEnsureRole:
		return "ensure-role"
	case StateEnsureDocuments:
		return "ensure-documents"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// snapshot captures the decision inputs for one invocation. It is derived
// exactly once, from the zaak returned by the create or get call; the
// local view is never assumed to stay fresh across steps.
type snapshot struct {
	zaak        zgw.Zaak
	attachments int
	reused      bool
}

func (s snapshot) hasRole() bool {
	return len(s.zaak.Rollen) > 0
}

// documentsComplete compares related documents against the expected count:
// every attachment plus the rendered submission PDF.
func (s snapshot) documentsComplete() bool {
	return len(s.zaak.Zaakinformatieobjecten) >= s.attachments+1
}

// nextState returns the successor of the current state given the snapshot.
// Role and document steps are skipped when the snapshot shows their effect
// already exists; the status step is always attempted.
func nextState(current State, snap snapshot) State {
	switch current {
	case StateIdempotencyCheck:
		return StateCreateOrReuse
	case StateCreateOrReuse:
		return StateEnsureStatus
	case StateEnsureStatus:
		if snap.hasRole() {
			if snap.documentsComplete() {
				return StateDone
			}
			return StateEnsureDocuments
		}
		return StateEnsureRole
	case StateEnsureRole:
		if snap.documentsComplete() {
			return StateDone
		}
		return StateEnsureDocuments
	default:
		return StateDone
	}
}
