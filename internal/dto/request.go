package dto

import (
	"github.com/shopspring/decimal"
)

// QuoteRequest carries the raw quoting inputs shared by calculation,
// session and loan creation requests.
type QuoteRequest struct {
	PremiumAmount    decimal.Decimal `json:"premium_amount"`
	InitialDeposit   decimal.Decimal `json:"initial_deposit"`
	Duration         int             `json:"duration" validate:"min=1,max=1800"`
	DurationUnit     string          `json:"duration_unit" validate:"omitempty,oneof=months installments"`
	PaymentFrequency string          `json:"payment_frequency" validate:"required,max=20"`
	QuoteType        string          `json:"quote_type" validate:"required,max=50"`
}

type CalculateRequest struct {
	QuoteRequest
	// StartDate is YYYY-MM-DD; today when empty.
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type ChargesRequest struct {
	ProcessingFee  decimal.Decimal `json:"processing_fee"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

// DirectScheduleRequest rebuilds a schedule from persisted loan parameters
// supplied by the caller.
type DirectScheduleRequest struct {
	TotalRepayment   decimal.Decimal `json:"total_repayment"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	NoOfInstallments int             `json:"noof_installments" validate:"min=1,max=1800"`
	PaymentFrequency string          `json:"payment_frequency" validate:"required,max=20"`
	StartDate        string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	AsOf             string          `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

type SessionRequest struct {
	QuoteRequest
	CustomerID uint64 `json:"customer_id"`
}

type CreateLoanRequest struct {
	QuoteRequest
	// CustomerID is required when an agent creates the loan and ignored
	// for customers, who always borrow for themselves.
	CustomerID uint64 `json:"customer_id"`
	StartDate  string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=cash momo bank card"`
	Reference string          `json:"reference" validate:"omitempty,max=64"`
	PaidAt    string          `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}
