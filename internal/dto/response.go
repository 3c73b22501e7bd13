package dto

import (
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"

	"github.com/shopspring/decimal"
)

type CalculateResponse struct {
	*financing.Result
	StartDate string `json:"start_date"`
}

type ChargesResponse struct {
	ProcessingFee  decimal.Decimal `json:"processing_fee"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	Charges        decimal.Decimal `json:"charges"`
}

type ScheduleResponse struct {
	LoanID   uint64                   `json:"loan_id,omitempty"`
	AsOf     string                   `json:"as_of"`
	Schedule []financing.ScheduleItem `json:"schedule"`
	Summary  financing.Summary        `json:"summary"`
}

type LoanResponse struct {
	ID                  uint64          `json:"id"`
	ContractNumber      string          `json:"contract_number"`
	CustomerID          uint64          `json:"customer_id"`
	QuoteType           string          `json:"quote_type"`
	PaymentFrequency    string          `json:"payment_frequency"`
	Duration            int             `json:"duration"`
	DurationUnit        string          `json:"duration_unit"`
	PremiumAmount       decimal.Decimal `json:"premium_amount"`
	InitialDeposit      decimal.Decimal `json:"initial_deposit"`
	StickerFee          decimal.Decimal `json:"sticker_fee"`
	ActualProcessingFee decimal.Decimal `json:"actual_processing_fee"`
	LoanAmount          decimal.Decimal `json:"loan_amount"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	TotalInterest       decimal.Decimal `json:"total_interest_value"`
	TotalRepayment      decimal.Decimal `json:"total_repayment"`
	TotalPaid           decimal.Decimal `json:"total_paid"`
	Balance             decimal.Decimal `json:"balance"`
	NoOfInstallments    int             `json:"noof_installments"`
	Status              string          `json:"status"`
	StartDate           string          `json:"start_date"`
	CreatedAt           time.Time       `json:"created_at"`
}

func LoanResponseFromEntity(l *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:                  l.ID,
		ContractNumber:      l.ContractNumber,
		CustomerID:          l.CustomerID,
		QuoteType:           l.QuoteType,
		PaymentFrequency:    string(l.PaymentFrequency),
		Duration:            l.Duration,
		DurationUnit:        string(l.DurationUnit),
		PremiumAmount:       l.PremiumAmount,
		InitialDeposit:      l.InitialDeposit,
		StickerFee:          l.StickerFee,
		ActualProcessingFee: l.ActualProcessingFee,
		LoanAmount:          l.LoanAmount,
		InterestRate:        l.InterestRate,
		TotalInterest:       l.TotalInterest,
		TotalRepayment:      l.TotalRepayment,
		TotalPaid:           l.TotalPaid,
		Balance:             l.Balance(),
		NoOfInstallments:    l.NoOfInstallments,
		Status:              string(l.Status),
		StartDate:           l.StartDate.Format(time.DateOnly),
		CreatedAt:           l.CreatedAt,
	}
}

func LoanResponsesFromEntities(loans []domain.Loan) []LoanResponse {
	responses := make([]LoanResponse, len(loans))
	for i := range loans {
		responses[i] = LoanResponseFromEntity(&loans[i])
	}
	return responses
}

type PaymentResponse struct {
	ID        uint64          `json:"id"`
	LoanID    uint64          `json:"loan_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	PaidAt    string          `json:"paid_at"`
}

func PaymentResponseFromEntity(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		LoanID:    p.LoanID,
		Reference: p.Reference,
		Amount:    p.Amount,
		Method:    p.Method,
		PaidAt:    p.PaidAt.Format(time.DateOnly),
	}
}

func PaymentResponsesFromEntities(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = PaymentResponseFromEntity(&payments[i])
	}
	return responses
}

// RecordPaymentResponse returns the journal entry with the loan state after it.
type RecordPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Loan    LoanResponse    `json:"loan"`
}
