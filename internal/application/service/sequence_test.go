package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectledger/finance-engine/internal/domain/entity"
)

func TestOrgCode(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme Builders", "ACME"},
		{"a-1 b", "A1BO"},
		{"XY", "XYOR"},
		{"Q", "QORG"},
		{"", "ORGO"},
		{"  --  ", "ORGO"},
		{"Zürich Studio", "ZRIC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrgCode(tt.name))
		})
	}
}

func TestSequenceGenerator_Next(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	var gotPrefix string
	repo := &mockInvoiceRepo{
		maxSequenceSuffixFunc: func(ctx context.Context, orgID int64, prefix string) (int, error) {
			gotPrefix = prefix
			return 41, nil
		},
	}
	gen := NewSequenceGenerator(repo, clock)

	number, err := gen.Next(context.Background(), &entity.Organization{ID: 1, Name: "Acme Builders"})

	require.NoError(t, err)
	assert.Equal(t, "ACME-2026-", gotPrefix)
	assert.Equal(t, "ACME-2026-042", number)
}

func TestSequenceGenerator_StrictlyIncreasing(t *testing.T) {
	issued := map[string]bool{}
	highest := 0
	repo := &mockInvoiceRepo{
		maxSequenceSuffixFunc: func(ctx context.Context, orgID int64, prefix string) (int, error) {
			return highest, nil
		},
	}
	gen := NewSequenceGenerator(repo, func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })

	for i := 1; i <= 12; i++ {
		number, err := gen.Next(context.Background(), &entity.Organization{ID: 1, Name: "Lo"})
		require.NoError(t, err)
		assert.False(t, issued[number])
		issued[number] = true
		highest = i
	}
	assert.True(t, issued["LOOR-2026-001"])
	assert.True(t, issued["LOOR-2026-012"])
}

func TestSequenceGenerator_RepoError(t *testing.T) {
	repo := &mockInvoiceRepo{
		maxSequenceSuffixFunc: func(ctx context.Context, orgID int64, prefix string) (int, error) {
			return 0, errors.New("database is locked")
		},
	}

	_, err := NewSequenceGenerator(repo, nil).Next(context.Background(), &entity.Organization{ID: 1, Name: "Acme"})

	assert.Error(t, err)
}
