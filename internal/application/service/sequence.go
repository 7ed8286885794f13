package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

const (
	orgCodeLength = 4
	orgCodePad    = "ORG"
)

// SequenceGenerator derives invoice numbers of the form CODE-YYYY-NNN.
// Numbers are unique per organization through a database constraint; two
// concurrent creations may compute the same number, and the loser gets a conflict.
type SequenceGenerator struct {
	invoiceRepo port.InvoiceRepository
	now         func() time.Time
}

// NewSequenceGenerator creates a SequenceGenerator. A nil clock uses time.Now.
func NewSequenceGenerator(invoiceRepo port.InvoiceRepository, now func() time.Time) *SequenceGenerator {
	if now == nil {
		now = time.Now
	}
	return &SequenceGenerator{invoiceRepo: invoiceRepo, now: now}
}

// Next returns the next free invoice number for the organization in the current year
func (g *SequenceGenerator) Next(ctx context.Context, org *entity.Organization) (string, error) {
	prefix := SequencePrefix(org.Name, g.now().Year())

	highest, err := g.invoiceRepo.MaxSequenceSuffix(ctx, org.ID, prefix)
	if err != nil {
		return "", fmt.Errorf("read invoice sequence: %w", err)
	}

	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

// SequencePrefix returns "CODE-YYYY-" for an organization name and year
func SequencePrefix(orgName string, year int) string {
	return fmt.Sprintf("%s-%d-", OrgCode(orgName), year)
}

// OrgCode takes the first four letters or digits of the name, upper-cased.
// Shorter codes are completed from "ORG", cycling if needed, so an empty name
// yields "ORGO".
func OrgCode(name string) string {
	var b strings.Builder
	for _, r := range name {
		if b.Len() >= orgCodeLength {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}

	for i := 0; b.Len() < orgCodeLength; i++ {
		b.WriteByte(orgCodePad[i%len(orgCodePad)])
	}
	return b.String()
}
