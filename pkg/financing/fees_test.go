package financing_test

import (
	"testing"

	"github.com/fazamuttaqien/ipap-financing/pkg/financing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestDeriveFees(t *testing.T) {
	tests := []struct {
		name        string
		premium     string
		deposit     string
		quoteType   string
		wantSticker string
		wantPreFee  string
		wantFee     string
		wantLoan    string
	}{
		{
			name:        "third party includes sticker fee in the fee base",
			premium:     "1000",
			deposit:     "200",
			quoteType:   "Third Party",
			wantSticker: "52",
			wantPreFee:  "800",
			wantFee:     "17.04",
			wantLoan:    "817.04",
		},
		{
			name:        "comprehensive uses the financed balance only",
			premium:     "1000",
			deposit:     "200",
			quoteType:   "Comprehensive",
			wantSticker: "0",
			wantPreFee:  "800",
			wantFee:     "16.00",
			wantLoan:    "816.00",
		},
		{
			name:        "zero deposit",
			premium:     "2500",
			deposit:     "0",
			quoteType:   "Comprehensive",
			wantSticker: "0",
			wantPreFee:  "2500",
			wantFee:     "50",
			wantLoan:    "2550",
		},
		{
			name:        "fee rounds half up to the cent",
			premium:     "100.25",
			deposit:     "0",
			quoteType:   "Comprehensive",
			wantSticker: "0",
			wantPreFee:  "100.25",
			wantFee:     "2.01",
			wantLoan:    "102.26",
		},
		{
			name:        "quote type match is exact",
			premium:     "1000",
			deposit:     "200",
			quoteType:   "third party",
			wantSticker: "0",
			wantPreFee:  "800",
			wantFee:     "16",
			wantLoan:    "816",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fees, err := financing.DeriveFees(d(tt.premium), d(tt.deposit), tt.quoteType)
			require.NoError(t, err)

			assertMoney(t, tt.wantSticker, fees.StickerFee)
			assertMoney(t, tt.wantPreFee, fees.LoanAmountPreFee)
			assertMoney(t, tt.wantFee, fees.ActualProcessingFee)
			assertMoney(t, tt.wantLoan, fees.LoanAmount)
			assertMoney(t, "0.02", fees.ProcessingFeeRate)
		})
	}
}

func TestDeriveFees_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		premium   string
		deposit   string
		quoteType string
		wantErr   error
	}{
		{"zero premium", "0", "0", "Comprehensive", financing.ErrInvalidPremium},
		{"negative premium", "-10", "0", "Comprehensive", financing.ErrInvalidPremium},
		{"negative deposit", "1000", "-1", "Comprehensive", financing.ErrInvalidDeposit},
		{"deposit equals premium", "1000", "1000", "Comprehensive", financing.ErrInvalidDeposit},
		{"deposit above premium", "1000", "1200", "Third Party", financing.ErrInvalidDeposit},
		{"empty quote type", "1000", "200", "  ", financing.ErrInvalidQuoteType},
		{"sub-cent premium", "1000.005", "0", "Comprehensive", financing.ErrInvalidPremium},
		{"sub-cent deposit", "1000", "200.001", "Comprehensive", financing.ErrInvalidDeposit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := financing.DeriveFees(d(tt.premium), d(tt.deposit), tt.quoteType)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, financing.IsValidationError(err))
		})
	}
}

func TestCalculateCharges(t *testing.T) {
	tests := []struct {
		name    string
		fee     string
		deposit string
		want    string
	}{
		{"surcharge below cap", "17.04", "200", "220.30"},
		{"surcharge capped at 40", "100", "5000", "5140"},
		{"exactly at cap boundary", "0", "2666.67", "2706.67"},
		{"zero inputs", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMoney(t, tt.want, financing.CalculateCharges(d(tt.fee), d(tt.deposit)))
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, financing.DefaultPolicy().Validate())

	p := financing.DefaultPolicy()
	p.ChargeCap = d("-1")
	assert.ErrorIs(t, p.Validate(), financing.ErrInvalidPolicy)

	p = financing.DefaultPolicy()
	p.MinimumDepositRate = d("1")
	assert.ErrorIs(t, p.Validate(), financing.ErrInvalidPolicy)

	for _, limit := range []int{0, financing.MaxInstallments + 1} {
		p = financing.DefaultPolicy()
		p.MaxInstallments = limit
		assert.ErrorIs(t, p.Validate(), financing.ErrInvalidPolicy, "max_installments %d", limit)
	}

	p = financing.DefaultPolicy()
	p.ThirdPartyQuoteType = ""
	_, err := financing.NewEngine(p)
	assert.ErrorIs(t, err, financing.ErrInvalidPolicy)
}

func TestErrorType(t *testing.T) {
	_, err := financing.DeriveFees(d("100"), d("100"), "Comprehensive")
	assert.Equal(t, "invalid_deposit", financing.ErrorType(err))

	_, err = financing.NormalizeDuration(0, financing.Monthly)
	assert.Equal(t, "invalid_duration", financing.ErrorType(err))

	assert.Equal(t, "unknown", financing.ErrorType(assert.AnError))
	assert.False(t, financing.IsValidationError(assert.AnError))
}
