package financing_test

import (
	"sync"
	"testing"
	"time"

	"github.com/fazamuttaqien/ipap-financing/pkg/financing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	engine *financing.Engine
	start  time.Time
}

func (s *EngineTestSuite) SetupTest() {
	s.engine = financing.Default()
	s.start = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) thirdPartyInput() financing.Input {
	return financing.Input{
		PremiumAmount:    d("1000"),
		InitialDeposit:   d("200"),
		Duration:         3,
		DurationUnit:     financing.DurationMonths,
		PaymentFrequency: "weekly",
		QuoteType:        "Third Party",
	}
}

func (s *EngineTestSuite) TestCalculate_ThirdPartyWeekly() {
	result, err := s.engine.Calculate(s.thirdPartyInput(), s.start)
	s.Require().NoError(err)

	t := s.T()
	assertMoney(t, "52", result.StickerFee)
	assertMoney(t, "17.04", result.ActualProcessingFee)
	assertMoney(t, "817.04", result.LoanAmount)
	assertMoney(t, "0", result.TotalInterestValue)
	assertMoney(t, "817.04", result.TotalRepayment)
	assertMoney(t, "817.04", result.Balance)
	assertMoney(t, "0", result.TotalPaid)

	s.Equal(financing.Weekly, result.PaymentFrequency)
	s.Equal(12, result.NoOfInstallments)
	s.Equal(12, result.LastInstallmentNo)
	assertMoney(t, "68.08", result.RegularInstallment)
	assertMoney(t, "68.16", result.LastInstallmentValue)
	assertMoney(t, "0.08", result.PayDifference)
	assertMoney(t, "68.08", result.FirstInstallment)
	assertMoney(t, "0", result.MinimumInitialDeposit)

	s.Require().Len(result.Schedule, 12)
	s.Equal(s.start.AddDate(0, 0, 7), result.Schedule[0].DueDate)
	s.Equal(s.start.AddDate(0, 0, 84), result.Schedule[11].DueDate)
	s.True(result.Schedule[11].RemainingBalance.IsZero())
}

func (s *EngineTestSuite) TestCalculate_InstallmentModeIsNotConvertedAgain() {
	in := s.thirdPartyInput()
	in.Duration = 12
	in.DurationUnit = financing.DurationInstallments

	result, err := s.engine.Calculate(in, s.start)
	s.Require().NoError(err)
	s.Equal(12, result.NoOfInstallments)
	s.Len(result.Schedule, 12)
}

func (s *EngineTestSuite) TestCalculate_SingleInstallment() {
	in := s.thirdPartyInput()
	in.Duration = 1
	in.DurationUnit = financing.DurationInstallments

	result, err := s.engine.Calculate(in, s.start)
	s.Require().NoError(err)

	t := s.T()
	s.Equal(1, result.NoOfInstallments)
	assertMoney(t, "0", result.RegularInstallment)
	assertMoney(t, "817.04", result.LastInstallmentValue)
	assertMoney(t, "817.04", result.FirstInstallment)
	assertMoney(t, "0", result.PayDifference)
}

func (s *EngineTestSuite) TestCalculate_Deterministic() {
	first, err := s.engine.Calculate(s.thirdPartyInput(), s.start)
	s.Require().NoError(err)
	second, err := s.engine.Calculate(s.thirdPartyInput(), s.start)
	s.Require().NoError(err)

	s.Equal(first, second)
}

func (s *EngineTestSuite) TestCalculate_ValidationErrors() {
	tests := []struct {
		name    string
		mutate  func(in *financing.Input)
		wantErr error
	}{
		{"zero premium", func(in *financing.Input) { in.PremiumAmount = d("0") }, financing.ErrInvalidPremium},
		{"deposit too large", func(in *financing.Input) { in.InitialDeposit = d("1000") }, financing.ErrInvalidDeposit},
		{"zero duration", func(in *financing.Input) { in.Duration = 0 }, financing.ErrInvalidDuration},
		{"unknown frequency", func(in *financing.Input) { in.PaymentFrequency = "yearly" }, financing.ErrInvalidFrequency},
		{"empty quote type", func(in *financing.Input) { in.QuoteType = "" }, financing.ErrInvalidQuoteType},
		{"sub-cent premium", func(in *financing.Input) { in.PremiumAmount = d("1000.005") }, financing.ErrInvalidPremium},
		{"sub-cent deposit", func(in *financing.Input) { in.InitialDeposit = d("200.001") }, financing.ErrInvalidDeposit},
		{"months overflow", func(in *financing.Input) { in.Duration = 1 << 40 }, financing.ErrInvalidDuration},
		{"too many installments", func(in *financing.Input) {
			in.Duration = 1 << 40
			in.DurationUnit = financing.DurationInstallments
		}, financing.ErrInvalidDuration},
		{"sixty one months daily", func(in *financing.Input) {
			in.Duration = 61
			in.PaymentFrequency = "daily"
		}, financing.ErrInvalidDuration},
		{"installment below one cent", func(in *financing.Input) {
			in.PremiumAmount = d("0.01")
			in.InitialDeposit = d("0")
			in.QuoteType = "Comprehensive"
			in.Duration = 1
			in.PaymentFrequency = "daily"
		}, financing.ErrInvalidSchedule},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := s.thirdPartyInput()
			tt.mutate(&in)

			result, err := s.engine.Calculate(in, s.start)
			s.Nil(result)
			s.ErrorIs(err, tt.wantErr)
		})
	}
}

func (s *EngineTestSuite) TestCalculate_PermissiveFrequencyFallsBackToMonthly() {
	policy := financing.DefaultPolicy()
	policy.PermissiveFrequency = true
	engine, err := financing.NewEngine(policy)
	s.Require().NoError(err)

	in := s.thirdPartyInput()
	in.PaymentFrequency = "fortnightly"

	result, err := engine.Calculate(in, s.start)
	s.Require().NoError(err)
	s.Equal(financing.Monthly, result.PaymentFrequency)
	s.Equal(3, result.NoOfInstallments)
}

func (s *EngineTestSuite) TestCalculate_PolicyInstallmentLimit() {
	policy := financing.DefaultPolicy()
	policy.MaxInstallments = 12
	engine, err := financing.NewEngine(policy)
	s.Require().NoError(err)

	in := s.thirdPartyInput()
	result, err := engine.Calculate(in, s.start)
	s.Require().NoError(err)
	s.Equal(12, result.NoOfInstallments)

	in.Duration = 4
	_, err = engine.Calculate(in, s.start)
	s.ErrorIs(err, financing.ErrInvalidDuration)

	_, err = engine.Reconstruct(financing.PersistedLoan{
		TotalRepayment:   d("1000"),
		NoOfInstallments: 13,
		PaymentFrequency: "weekly",
		StartDate:        s.start,
	}, s.start)
	s.ErrorIs(err, financing.ErrInvalidDuration)
}

func (s *EngineTestSuite) TestReconstruct() {
	result, err := s.engine.Calculate(s.thirdPartyInput(), s.start)
	s.Require().NoError(err)

	loan := financing.PersistedLoan{
		InitialDeposit:   d("200"),
		LoanAmount:       result.LoanAmount,
		TotalRepayment:   result.TotalRepayment,
		TotalPaid:        d("136.16"),
		NoOfInstallments: result.NoOfInstallments,
		PaymentFrequency: string(result.PaymentFrequency),
		Duration:         3,
		StartDate:        s.start,
	}

	// Four weekly installments have fallen due.
	asOf := s.start.AddDate(0, 0, 30)
	schedule, err := s.engine.Reconstruct(loan, asOf)
	s.Require().NoError(err)
	s.Require().Len(schedule, 12)

	s.Equal(financing.StatusPaid, schedule[0].Status)
	s.Equal(financing.StatusPaid, schedule[1].Status)
	s.Equal(financing.StatusOverdue, schedule[2].Status)
	s.Equal(9, schedule[2].DaysOverdue)
	s.Equal(financing.StatusOverdue, schedule[3].Status)
	s.Equal(2, schedule[3].DaysOverdue)
	s.Equal(financing.StatusPending, schedule[4].Status)

	for i := range schedule {
		s.True(schedule[i].PaymentAmount.Equal(result.Schedule[i].PaymentAmount))
		s.Equal(result.Schedule[i].DueDate, schedule[i].DueDate)
	}
}

func (s *EngineTestSuite) TestReconstruct_Invalid() {
	loan := financing.PersistedLoan{
		TotalRepayment:   d("100"),
		NoOfInstallments: 0,
		PaymentFrequency: "monthly",
		StartDate:        s.start,
	}
	_, err := s.engine.Reconstruct(loan, s.start)
	s.ErrorIs(err, financing.ErrInvalidDuration)

	loan.NoOfInstallments = 1 << 40
	_, err = s.engine.Reconstruct(loan, s.start)
	s.ErrorIs(err, financing.ErrInvalidDuration)

	loan.NoOfInstallments = 3
	loan.PaymentFrequency = "hourly"
	_, err = s.engine.Reconstruct(loan, s.start)
	s.ErrorIs(err, financing.ErrInvalidFrequency)
}

func TestCalculate_WithInterest(t *testing.T) {
	policy := financing.DefaultPolicy()
	policy.AnnualInterestRate = d("0.24")
	policy.MinimumDepositRate = d("0.1")
	engine, err := financing.NewEngine(policy)
	require.NoError(t, err)

	in := financing.Input{
		PremiumAmount:    d("1000"),
		InitialDeposit:   d("200"),
		Duration:         3,
		DurationUnit:     financing.DurationMonths,
		PaymentFrequency: "monthly",
		QuoteType:        "Comprehensive",
	}
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	result, err := engine.Calculate(in, start)
	require.NoError(t, err)

	assertMoney(t, "816", result.LoanAmount)
	assertMoney(t, "0.24", result.InterestRate)
	assertMoney(t, "0.02", result.AppliedRate)
	assertMoney(t, "48.96", result.TotalInterestValue)
	assertMoney(t, "16.32", result.InterestPerInstallment)
	assertMoney(t, "864.96", result.TotalRepayment)
	assertMoney(t, "288.32", result.RegularInstallment)
	assertMoney(t, "288.32", result.LastInstallmentValue)
	assertMoney(t, "100", result.MinimumInitialDeposit)

	in.PaymentFrequency = "weekly"
	result, err = engine.Calculate(in, start)
	require.NoError(t, err)

	assert.Equal(t, 12, result.NoOfInstallments)
	assertMoney(t, "45.19", result.TotalInterestValue)
	assertMoney(t, "861.19", result.TotalRepayment)
	assertMoney(t, "71.76", result.RegularInstallment)
	assertMoney(t, "71.83", result.LastInstallmentValue)
	assertMoney(t, "0.07", result.PayDifference)
}

func TestEngine_ConcurrentUse(t *testing.T) {
	engine := financing.Default()
	in := financing.Input{
		PremiumAmount:    d("5400.50"),
		InitialDeposit:   d("400"),
		Duration:         6,
		PaymentFrequency: "daily",
		QuoteType:        "Third Party",
	}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	want, err := engine.Calculate(in, start)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*financing.Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = engine.Calculate(in, start)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
