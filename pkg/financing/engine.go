// Package financing implements the premium financing calculation engine:
// fee derivation, installment schedules and schedule status projection.
//
// Every function is a pure transformation of its inputs. An Engine holds only
// an immutable Policy and is safe for concurrent use.
package financing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Input is what a quoting flow supplies for a calculation.
type Input struct {
	PremiumAmount    decimal.Decimal
	InitialDeposit   decimal.Decimal
	Duration         int
	DurationUnit     DurationUnit
	PaymentFrequency string
	QuoteType        string
}

// Result is the full derivation for one Input.
type Result struct {
	StickerFee          decimal.Decimal `json:"sticker_fee"`
	ProcessingFeeRate   decimal.Decimal `json:"processing_fee_rate"`
	ActualProcessingFee decimal.Decimal `json:"actual_processing_fee"`
	LoanAmount          decimal.Decimal `json:"loan_amount"`

	InterestRate decimal.Decimal `json:"interest_rate"`
	AppliedRate  decimal.Decimal `json:"applied_rate"`

	PaymentFrequency     Frequency       `json:"payment_frequency"`
	NoOfInstallments     int             `json:"noof_installments"`
	RegularInstallment   decimal.Decimal `json:"regular_installment"`
	LastInstallmentNo    int             `json:"last_installment_no"`
	LastInstallmentValue decimal.Decimal `json:"last_installment_value"`

	InterestPerInstallment decimal.Decimal `json:"interest_per_installment"`
	TotalInterestValue     decimal.Decimal `json:"total_interest_value"`
	TotalRepayment         decimal.Decimal `json:"total_repayment"`
	TotalPaid              decimal.Decimal `json:"total_paid"`
	Balance                decimal.Decimal `json:"balance"`

	FirstInstallment      decimal.Decimal `json:"first_installment"`
	PayDifference         decimal.Decimal `json:"pay_difference"`
	MinimumInitialDeposit decimal.Decimal `json:"minimum_initial_deposit"`

	Schedule []ScheduleItem `json:"schedule"`
}

// PersistedLoan carries the loan parameters stored once a customer accepts a
// quote. It is enough to rebuild the schedule.
type PersistedLoan struct {
	InitialDeposit   decimal.Decimal
	LoanAmount       decimal.Decimal
	TotalRepayment   decimal.Decimal
	TotalPaid        decimal.Decimal
	NoOfInstallments int
	PaymentFrequency string
	Duration         int
	StartDate        time.Time
}

// Engine runs the calculations under one Policy.
type Engine struct {
	policy Policy
}

// NewEngine validates policy and returns an engine bound to it.
func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy}, nil
}

// Default returns an engine using DefaultPolicy.
func Default() *Engine {
	return &Engine{policy: DefaultPolicy()}
}

// Policy returns a copy of the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// ParseFrequency parses s, honouring the policy's PermissiveFrequency.
func (e *Engine) ParseFrequency(s string) (Frequency, error) {
	return ParseFrequency(s, e.policy.PermissiveFrequency)
}

// DeriveFees is Policy.DeriveFees under the engine's policy.
func (e *Engine) DeriveFees(premium, deposit decimal.Decimal, quoteType string) (Fees, error) {
	return e.policy.DeriveFees(premium, deposit, quoteType)
}

// CalculateCharges is Policy.CalculateCharges under the engine's policy.
func (e *Engine) CalculateCharges(processingFee, deposit decimal.Decimal) decimal.Decimal {
	return e.policy.CalculateCharges(processingFee, deposit)
}

// AppliedRate converts the nominal annual rate into a per-installment rate.
func (e *Engine) AppliedRate(frequency Frequency) decimal.Decimal {
	return e.policy.AnnualInterestRate.Div(decimal.NewFromInt(frequency.periodsPerYear()))
}

// Calculate derives fees, interest, totals and the repayment schedule for in.
// Installments fall due one period apart starting one period after start.
func (e *Engine) Calculate(in Input, start time.Time) (*Result, error) {
	fees, err := e.policy.DeriveFees(in.PremiumAmount, in.InitialDeposit, in.QuoteType)
	if err != nil {
		return nil, err
	}

	frequency, err := e.ParseFrequency(in.PaymentFrequency)
	if err != nil {
		return nil, err
	}

	count, err := InstallmentCount(in.Duration, in.DurationUnit, frequency)
	if err != nil {
		return nil, err
	}
	if err := e.checkInstallments(count); err != nil {
		return nil, err
	}

	applied := e.AppliedRate(frequency)
	n := decimal.NewFromInt(int64(count))
	totalInterest := Money(fees.LoanAmount.Mul(applied).Mul(n))
	totalRepayment := fees.LoanAmount.Add(totalInterest)

	schedule, err := GenerateSchedule(totalRepayment, count, start, frequency)
	if err != nil {
		return nil, err
	}

	regular, last := splitInstallments(totalRepayment, count)
	payDifference := decimal.Zero
	if count > 1 {
		payDifference = last.Sub(regular)
	}

	return &Result{
		StickerFee:          fees.StickerFee,
		ProcessingFeeRate:   fees.ProcessingFeeRate,
		ActualProcessingFee: fees.ActualProcessingFee,
		LoanAmount:          fees.LoanAmount,

		InterestRate: e.policy.AnnualInterestRate,
		AppliedRate:  applied,

		PaymentFrequency:     frequency,
		NoOfInstallments:     count,
		RegularInstallment:   regular,
		LastInstallmentNo:    count,
		LastInstallmentValue: last,

		InterestPerInstallment: Money(totalInterest.Div(n)),
		TotalInterestValue:     totalInterest,
		TotalRepayment:         totalRepayment,
		TotalPaid:              decimal.Zero,
		Balance:                totalRepayment,

		FirstInstallment:      schedule[0].PaymentAmount,
		PayDifference:         payDifference,
		MinimumInitialDeposit: Money(in.PremiumAmount.Mul(e.policy.MinimumDepositRate)),

		Schedule: schedule,
	}, nil
}

// Reconstruct rebuilds the schedule of a persisted loan and projects its
// status as of asOf.
func (e *Engine) Reconstruct(loan PersistedLoan, asOf time.Time) ([]ScheduleItem, error) {
	frequency, err := e.ParseFrequency(loan.PaymentFrequency)
	if err != nil {
		return nil, err
	}
	if err := e.checkInstallments(loan.NoOfInstallments); err != nil {
		return nil, err
	}

	schedule, err := GenerateSchedule(loan.TotalRepayment, loan.NoOfInstallments, loan.StartDate, frequency)
	if err != nil {
		return nil, err
	}

	return ProjectScheduleStatus(schedule, loan.TotalPaid, asOf), nil
}

func (e *Engine) checkInstallments(count int) error {
	limit := e.policy.MaxInstallments
	if count < 1 || count > limit {
		return fmt.Errorf("%w: installment count %d, want 1..%d", ErrInvalidDuration, count, limit)
	}
	return nil
}
