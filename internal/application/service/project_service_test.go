package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
)

func TestProjectService_AdvanceStage(t *testing.T) {
	projects := &mockProjectRepo{}
	require.NoError(t, projects.Create(context.Background(), &entity.Project{Stage: entity.StageContract}))
	require.NoError(t, projects.Create(context.Background(), &entity.Project{Stage: entity.StageCompletion}))
	svc := NewProjectService(projects, &mockInvoiceRepo{}, &mockTxManager{}, &mockLogger{})

	p, err := svc.AdvanceStage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StageConstruction, p.Stage)
	assert.Equal(t, entity.StageConstruction, projects.projects[1].Stage)

	p, err = svc.AdvanceStage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, entity.StageCompletion, p.Stage)

	_, err = svc.AdvanceStage(context.Background(), 3)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestProjectService_GetBillingPosition(t *testing.T) {
	projects := &mockProjectRepo{}
	require.NoError(t, projects.Create(context.Background(), &entity.Project{
		Stage:  entity.StageTender,
		Budget: money.Null(d("200000")),
	}))
	invoices := &mockInvoiceRepo{}
	projectID := int64(1)
	require.NoError(t, invoices.Create(context.Background(), &entity.Invoice{ProjectID: &projectID, Subtotal: d("50000"), Status: entity.InvoiceStatusPaid}))
	require.NoError(t, invoices.Create(context.Background(), &entity.Invoice{ProjectID: &projectID, Subtotal: d("9000"), Status: entity.InvoiceStatusCancelled}))
	svc := NewProjectService(projects, invoices, &mockTxManager{}, &mockLogger{})

	pos, err := svc.GetBillingPosition(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, pos.CumulativeFeePercentage.Decimal.Equal(d("60")))
	assert.True(t, pos.CumulativeFeeAmount.Decimal.Equal(d("120000")))
	assert.True(t, pos.PreviouslyBilledAmount.Decimal.Equal(d("50000")))
	assert.True(t, pos.RemainingBillable.Equal(d("70000")))
}
