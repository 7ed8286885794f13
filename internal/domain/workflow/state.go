package workflow

import "github.com/projectledger/finance-engine/internal/domain/entity"

// State is an invoice status as seen by the state machine
type State string

const (
	StateDraft     State = State(entity.InvoiceStatusDraft)
	StateSent      State = State(entity.InvoiceStatusSent)
	StatePaid      State = State(entity.InvoiceStatusPaid)
	StateOverdue   State = State(entity.InvoiceStatusOverdue)
	StateCancelled State = State(entity.InvoiceStatusCancelled)
)

// Payment can no longer be recorded in a terminal state
var terminalStates = map[State]bool{
	StatePaid:      true,
	StateCancelled: true,
}

// FromStatus converts an invoice status
func FromStatus(status entity.InvoiceStatus) State {
	return State(status)
}

// Status converts back to the persisted invoice status
func (s State) Status() entity.InvoiceStatus {
	return entity.InvoiceStatus(s)
}

// IsTerminal returns true if no payment transition leaves the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known invoice status
func (s State) IsValid() bool {
	return s.Status().IsValid()
}
