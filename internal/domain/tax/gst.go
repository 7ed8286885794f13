// Package tax determines the India GST regime for an invoice.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// IntraStateHalfRate is charged twice (CGST and SGST) when supplier and client
	// share a state.
	IntraStateHalfRate = decimal.NewFromInt(9)

	// InterStateRate is charged once as IGST otherwise.
	InterStateRate = decimal.NewFromInt(18)
)

// Rates are GST percentages. Either CGST and SGST are set, or IGST is.
type Rates struct {
	CGST decimal.Decimal `json:"cgst_rate"`
	SGST decimal.Decimal `json:"sgst_rate"`
	IGST decimal.Decimal `json:"igst_rate"`
}

// IsIntraState reports whether the CGST/SGST split applies.
func (r Rates) IsIntraState() bool {
	return r.CGST.IsPositive()
}

// Determine returns the GST rates for a supply from orgState to clientState.
// Matching is exact after trimming and case folding; a missing state on either
// side falls back to IGST.
func Determine(orgState, clientState string) Rates {
	org := normalize(orgState)
	client := normalize(clientState)

	if org != "" && client != "" && org == client {
		return Rates{
			CGST: IntraStateHalfRate,
			SGST: IntraStateHalfRate,
			IGST: decimal.Zero,
		}
	}

	return Rates{
		CGST: decimal.Zero,
		SGST: decimal.Zero,
		IGST: InterStateRate,
	}
}

func normalize(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}
