package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

type ctxKey string

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSent, false},
		{StateOverdue, false},
		{StatePaid, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"cancelled", StateCancelled, true},
		{"invalid state", State("ARCHIVED"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_RoundTripsStatus(t *testing.T) {
	if got := FromStatus(entity.InvoiceStatusOverdue).Status(); got != entity.InvoiceStatusOverdue {
		t.Errorf("Status() = %v, want %v", got, entity.InvoiceStatusOverdue)
	}
	if got := StateSent.String(); got != "SENT" {
		t.Errorf("State.String() = %v, want SENT", got)
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("INVALID"))
}

func TestStateConfiguration_PermitIf(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSent).
		PermitIf(TriggerMarkOverdue, StateOverdue, func(ctx context.Context) bool {
			due, _ := ctx.Value(ctxKey("past_due")).(bool)
			return due
		})

	notDue := builder.Build(StateSent)
	err := notDue.Fire(context.Background(), TriggerMarkOverdue)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if notDue.State() != StateSent {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateSent, notDue.State())
	}

	due := builder.Build(StateSent)
	ctx := context.WithValue(context.Background(), ctxKey("past_due"), true)
	if err := due.Fire(ctx, TriggerMarkOverdue); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if due.State() != StateOverdue {
		t.Errorf("State after Fire() = %v, want %v", due.State(), StateOverdue)
	}
}

func TestInvoiceMachine_Fire(t *testing.T) {
	tests := []struct {
		from    entity.InvoiceStatus
		trigger Trigger
		want    entity.InvoiceStatus
		wantErr bool
	}{
		{entity.InvoiceStatusDraft, TriggerSend, entity.InvoiceStatusSent, false},
		{entity.InvoiceStatusDraft, TriggerPay, entity.InvoiceStatusPaid, false},
		{entity.InvoiceStatusDraft, TriggerCancel, entity.InvoiceStatusCancelled, false},
		{entity.InvoiceStatusSent, TriggerMarkOverdue, entity.InvoiceStatusOverdue, false},
		{entity.InvoiceStatusOverdue, TriggerPay, entity.InvoiceStatusPaid, false},
		{entity.InvoiceStatusCancelled, TriggerReopen, entity.InvoiceStatusDraft, false},
		{entity.InvoiceStatusPaid, TriggerCancel, entity.InvoiceStatusPaid, true},
		{entity.InvoiceStatusPaid, TriggerPay, entity.InvoiceStatusPaid, true},
		{entity.InvoiceStatusDraft, TriggerMarkOverdue, entity.InvoiceStatusDraft, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			got, err := Advance(context.Background(), tt.from, tt.trigger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Advance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrInvalidState) {
				t.Errorf("Advance() error = %v, want it to match apperr.ErrInvalidState", err)
			}
			if got != tt.want {
				t.Errorf("Advance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvoiceMachine_PermittedTriggers(t *testing.T) {
	triggers := NewInvoiceMachine(entity.InvoiceStatusSent).PermittedTriggers()

	want := []Trigger{TriggerPay, TriggerMarkOverdue, TriggerCancel}
	if len(triggers) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", triggers, want)
	}
	for i := range want {
		if triggers[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, triggers[i], want[i])
		}
	}

	if got := NewInvoiceMachine(entity.InvoiceStatusPaid).PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() for PAID = %v, want none", got)
	}
}

func TestInvoiceMachine_Independent(t *testing.T) {
	m1 := NewInvoiceMachine(entity.InvoiceStatusDraft)
	m2 := NewInvoiceMachine(entity.InvoiceStatusDraft)

	if err := m1.Fire(context.Background(), TriggerSend); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.State() != StateDraft {
		t.Errorf("m2 state = %v, want %v (machines should be independent)", m2.State(), StateDraft)
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from    entity.InvoiceStatus
		to      entity.InvoiceStatus
		wantErr bool
	}{
		{entity.InvoiceStatusDraft, entity.InvoiceStatusSent, false},
		{entity.InvoiceStatusSent, entity.InvoiceStatusOverdue, false},
		{entity.InvoiceStatusSent, entity.InvoiceStatusSent, false},
		{entity.InvoiceStatusCancelled, entity.InvoiceStatusDraft, false},
		{entity.InvoiceStatusPaid, entity.InvoiceStatusDraft, true},
		{entity.InvoiceStatusDraft, entity.InvoiceStatusOverdue, true},
		{entity.InvoiceStatusOverdue, entity.InvoiceStatusSent, true},
		{entity.InvoiceStatusDraft, entity.InvoiceStatus("VOID"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTransition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("ValidateTransition() error = %v, want %v", err, ErrInvalidTransition)
			}
		})
	}
}
