package model

import (
	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"
)

func LoanFromEntity(data *domain.Loan) Loan {
	return Loan{
		ID:                  data.ID,
		ContractNumber:      data.ContractNumber,
		CustomerID:          data.CustomerID,
		CreatedBy:           data.CreatedBy,
		QuoteType:           data.QuoteType,
		PaymentFrequency:    string(data.PaymentFrequency),
		Duration:            data.Duration,
		DurationUnit:        string(data.DurationUnit),
		PremiumAmount:       data.PremiumAmount,
		InitialDeposit:      data.InitialDeposit,
		StickerFee:          data.StickerFee,
		ActualProcessingFee: data.ActualProcessingFee,
		LoanAmount:          data.LoanAmount,
		InterestRate:        data.InterestRate,
		TotalInterest:       data.TotalInterest,
		TotalRepayment:      data.TotalRepayment,
		TotalPaid:           data.TotalPaid,
		NoOfInstallments:    data.NoOfInstallments,
		Status:              LoanStatus(data.Status),
		StartDate:           data.StartDate,
	}
}

func LoanToEntity(data Loan) *domain.Loan {
	return &domain.Loan{
		ID:                  data.ID,
		ContractNumber:      data.ContractNumber,
		CustomerID:          data.CustomerID,
		CreatedBy:           data.CreatedBy,
		QuoteType:           data.QuoteType,
		PaymentFrequency:    financing.Frequency(data.PaymentFrequency),
		Duration:            data.Duration,
		DurationUnit:        financing.DurationUnit(data.DurationUnit),
		PremiumAmount:       data.PremiumAmount,
		InitialDeposit:      data.InitialDeposit,
		StickerFee:          data.StickerFee,
		ActualProcessingFee: data.ActualProcessingFee,
		LoanAmount:          data.LoanAmount,
		InterestRate:        data.InterestRate,
		TotalInterest:       data.TotalInterest,
		TotalRepayment:      data.TotalRepayment,
		TotalPaid:           data.TotalPaid,
		NoOfInstallments:    data.NoOfInstallments,
		Status:              domain.LoanStatus(data.Status),
		StartDate:           data.StartDate,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}

func LoansToEntity(data []Loan) []domain.Loan {
	responses := make([]domain.Loan, len(data))
	for i, l := range data {
		responses[i] = *LoanToEntity(l)
	}

	return responses
}
