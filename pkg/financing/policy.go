package financing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ThirdPartyQuoteType is the quote type that carries the sticker fee.
const ThirdPartyQuoteType = "Third Party"

// MaxInstallments is the hard ceiling on schedule length: daily installments
// over sixty months.
const MaxInstallments = 1800

// Policy holds the tunable business constants of the engine.
type Policy struct {
	// StickerFee is added to the financed balance before the processing fee
	// is taken, for Third Party quotes only.
	StickerFee        decimal.Decimal
	ProcessingFeeRate decimal.Decimal

	// ChargeRate and ChargeCap drive the settlement surcharge.
	ChargeRate decimal.Decimal
	ChargeCap  decimal.Decimal

	// AnnualInterestRate is a nominal annual rate, e.g. 0.24 for 24%.
	AnnualInterestRate decimal.Decimal
	MinimumDepositRate decimal.Decimal

	ThirdPartyQuoteType string

	// MaxInstallments caps the installment count of a quote. It may not
	// exceed the package-level MaxInstallments.
	MaxInstallments int

	// PermissiveFrequency keeps the legacy behaviour of treating unknown
	// frequency strings as monthly instead of rejecting them.
	PermissiveFrequency bool
}

func DefaultPolicy() Policy {
	return Policy{
		StickerFee:          decimal.NewFromInt(52),
		ProcessingFeeRate:   decimal.RequireFromString("0.02"),
		ChargeRate:          decimal.RequireFromString("0.015"),
		ChargeCap:           decimal.NewFromInt(40),
		AnnualInterestRate:  decimal.Zero,
		MinimumDepositRate:  decimal.Zero,
		ThirdPartyQuoteType: ThirdPartyQuoteType,
		MaxInstallments:     MaxInstallments,
	}
}

func (p Policy) Validate() error {
	nonNegative := map[string]decimal.Decimal{
		"sticker_fee":          p.StickerFee,
		"processing_fee_rate":  p.ProcessingFeeRate,
		"charge_rate":          p.ChargeRate,
		"charge_cap":           p.ChargeCap,
		"annual_interest_rate": p.AnnualInterestRate,
		"minimum_deposit_rate": p.MinimumDepositRate,
	}
	for name, v := range nonNegative {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidPolicy, name)
		}
	}

	if p.MinimumDepositRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: minimum_deposit_rate must be below 1", ErrInvalidPolicy)
	}
	if p.MaxInstallments < 1 || p.MaxInstallments > MaxInstallments {
		return fmt.Errorf("%w: max_installments must be between 1 and %d", ErrInvalidPolicy, MaxInstallments)
	}
	if p.ThirdPartyQuoteType == "" {
		return fmt.Errorf("%w: third_party_quote_type is required", ErrInvalidPolicy)
	}

	return nil
}
