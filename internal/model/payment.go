package model

import (
	"github.com/fazamuttaqien/ipap-financing/internal/domain"
)

func PaymentFromEntity(data *domain.Payment) Payment {
	return Payment{
		ID:         data.ID,
		LoanID:     data.LoanID,
		Reference:  data.Reference,
		Amount:     data.Amount,
		Method:     data.Method,
		RecordedBy: data.RecordedBy,
		PaidAt:     data.PaidAt,
	}
}

func PaymentToEntity(data Payment) *domain.Payment {
	return &domain.Payment{
		ID:         data.ID,
		LoanID:     data.LoanID,
		Reference:  data.Reference,
		Amount:     data.Amount,
		Method:     data.Method,
		RecordedBy: data.RecordedBy,
		PaidAt:     data.PaidAt,
		CreatedAt:  data.CreatedAt,
	}
}

func PaymentsToEntity(data []Payment) []domain.Payment {
	responses := make([]domain.Payment, len(data))
	for i, p := range data {
		responses[i] = *PaymentToEntity(p)
	}

	return responses
}
