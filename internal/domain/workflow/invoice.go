package workflow

import (
	"context"
	"fmt"

	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// PermittedOrder fixes the order in which triggers are reported and searched
var PermittedOrder = []Trigger{
	TriggerSend,
	TriggerPay,
	TriggerMarkOverdue,
	TriggerCancel,
	TriggerReopen,
}

// invoiceBuilder holds the invoice lifecycle; machines built from it are independent
var invoiceBuilder = newInvoiceBuilder()

func newInvoiceBuilder() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StateDraft).
		Permit(TriggerSend, StateSent).
		Permit(TriggerPay, StatePaid).
		Permit(TriggerCancel, StateCancelled)

	b.Configure(StateSent).
		Permit(TriggerPay, StatePaid).
		Permit(TriggerMarkOverdue, StateOverdue).
		Permit(TriggerCancel, StateCancelled)

	b.Configure(StateOverdue).
		Permit(TriggerPay, StatePaid).
		Permit(TriggerCancel, StateCancelled)

	b.Configure(StateCancelled).
		Permit(TriggerReopen, StateDraft)

	return b
}

// NewInvoiceMachine returns a machine positioned at the given status
func NewInvoiceMachine(status entity.InvoiceStatus) StateMachine {
	return invoiceBuilder.Build(FromStatus(status))
}

// ValidateTransition checks that an invoice may move from one status to another.
// Staying in the same status is always allowed.
func ValidateTransition(from, to entity.InvoiceStatus) error {
	if !FromStatus(from).IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}
	if !FromStatus(to).IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if from == to {
		return nil
	}

	if _, ok := NewInvoiceMachine(from).TriggerFor(FromStatus(to)); !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Advance fires trigger on an invoice in the given status and returns the new status
func Advance(ctx context.Context, status entity.InvoiceStatus, trigger Trigger) (entity.InvoiceStatus, error) {
	if !FromStatus(status).IsValid() {
		return status, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	machine := NewInvoiceMachine(status)
	if err := machine.Fire(ctx, trigger); err != nil {
		return status, err
	}
	return machine.State().Status(), nil
}
