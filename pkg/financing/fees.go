package financing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Fees is the outcome of fee derivation for one quote.
type Fees struct {
	StickerFee          decimal.Decimal `json:"sticker_fee"`
	ProcessingFeeRate   decimal.Decimal `json:"processing_fee_rate"`
	LoanAmountPreFee    decimal.Decimal `json:"loan_amount_pre_fee"`
	ActualProcessingFee decimal.Decimal `json:"actual_processing_fee"`
	LoanAmount          decimal.Decimal `json:"loan_amount"`
}

// Money rounds to currency precision, half away from zero.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// wholeCents reports whether d has no digits below the cent.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(Money(d))
}

func validateAmounts(premium, deposit decimal.Decimal) error {
	if !premium.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidPremium, premium)
	}
	if !wholeCents(premium) {
		return fmt.Errorf("%w: %s has sub-cent digits", ErrInvalidPremium, premium)
	}
	if deposit.IsNegative() {
		return fmt.Errorf("%w: deposit %s is negative", ErrInvalidDeposit, deposit)
	}
	if !wholeCents(deposit) {
		return fmt.Errorf("%w: deposit %s has sub-cent digits", ErrInvalidDeposit, deposit)
	}
	if deposit.GreaterThanOrEqual(premium) {
		return fmt.Errorf("%w: deposit %s, premium %s", ErrInvalidDeposit, deposit, premium)
	}
	return nil
}

func (p Policy) isThirdParty(quoteType string) bool {
	return quoteType == p.ThirdPartyQuoteType
}

// DeriveFees computes the processing fee and the financed loan amount. The fee
// is financed, so it is part of the loan amount.
func (p Policy) DeriveFees(premium, deposit decimal.Decimal, quoteType string) (Fees, error) {
	if err := validateAmounts(premium, deposit); err != nil {
		return Fees{}, err
	}
	if strings.TrimSpace(quoteType) == "" {
		return Fees{}, ErrInvalidQuoteType
	}

	preFee := premium.Sub(deposit)
	feeBase := preFee
	sticker := decimal.Zero
	if p.isThirdParty(quoteType) {
		sticker = p.StickerFee
		feeBase = preFee.Add(sticker)
	}

	fee := Money(feeBase.Mul(p.ProcessingFeeRate))

	return Fees{
		StickerFee:          sticker,
		ProcessingFeeRate:   p.ProcessingFeeRate,
		LoanAmountPreFee:    preFee,
		ActualProcessingFee: fee,
		LoanAmount:          preFee.Add(fee),
	}, nil
}

// CalculateCharges returns the amount due at account settlement: the
// processing fee plus deposit, with a capped surcharge on top.
func (p Policy) CalculateCharges(processingFee, deposit decimal.Decimal) decimal.Decimal {
	quote := processingFee.Add(deposit)
	surcharge := decimal.Min(quote.Mul(p.ChargeRate), p.ChargeCap)
	return Money(quote.Add(surcharge))
}

// DeriveFees applies DefaultPolicy.
func DeriveFees(premium, deposit decimal.Decimal, quoteType string) (Fees, error) {
	return DefaultPolicy().DeriveFees(premium, deposit, quoteType)
}

// CalculateCharges applies DefaultPolicy.
func CalculateCharges(processingFee, deposit decimal.Decimal) decimal.Decimal {
	return DefaultPolicy().CalculateCharges(processingFee, deposit)
}
