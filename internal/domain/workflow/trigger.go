package workflow

// Trigger represents an event that moves an invoice between statuses
type Trigger string

const (
	TriggerSend        Trigger = "SEND"
	TriggerPay         Trigger = "PAY"
	TriggerMarkOverdue Trigger = "MARK_OVERDUE"
	TriggerCancel      Trigger = "CANCEL"
	TriggerReopen      Trigger = "REOPEN"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
