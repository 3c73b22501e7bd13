package service

import (
	"context"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/dto"
)

type FinancingServices interface {
	Calculate(ctx context.Context, req dto.CalculateRequest) (*dto.CalculateResponse, error)
	CalculateCharges(ctx context.Context, req dto.ChargesRequest) (*dto.ChargesResponse, error)
	DirectSchedule(ctx context.Context, req dto.DirectScheduleRequest) (*dto.ScheduleResponse, error)

	SaveSession(ctx context.Context, userID uint64, paymentType string, req dto.SessionRequest) (*domain.QuoteSession, error)
	GetSession(ctx context.Context, userID uint64, paymentType string) (*domain.QuoteSession, error)
	DeleteSession(ctx context.Context, userID uint64, paymentType string) error
}

type LoanServices interface {
	CreateLoan(ctx context.Context, actor domain.Actor, req dto.CreateLoanRequest) (*domain.Loan, error)
	GetLoan(ctx context.Context, actor domain.Actor, loanID uint64) (*domain.Loan, error)
	// ListLoans lists customerID's loans. Customers always get their own,
	// whatever customerID says; zero lists every loan for agents and admins.
	ListLoans(ctx context.Context, actor domain.Actor, customerID uint64, params domain.Params) (*domain.Paginated, error)
	GetSchedule(ctx context.Context, actor domain.Actor, loanID uint64, asOf time.Time) (*dto.ScheduleResponse, error)
	RecordPayment(ctx context.Context, actor domain.Actor, loanID uint64, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error)
	ListPayments(ctx context.Context, actor domain.Actor, loanID uint64) ([]domain.Payment, error)
}
