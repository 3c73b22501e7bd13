package repository

import (
	"context"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"

	"github.com/shopspring/decimal"
)

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	FindByID(ctx context.Context, id uint64) (*domain.Loan, error)
	FindByIDWithLock(ctx context.Context, id uint64) (*domain.Loan, error)
	// FindPaginatedByCustomerID lists loans newest first. A zero customerID
	// lists loans of every customer.
	FindPaginatedByCustomerID(ctx context.Context, customerID uint64, params domain.Params) ([]domain.Loan, int64, error)
	UpdatePaid(ctx context.Context, id uint64, totalPaid decimal.Decimal, status domain.LoanStatus) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByLoanID(ctx context.Context, loanID uint64) ([]domain.Payment, error)
}

type SessionRepository interface {
	Save(ctx context.Context, userID uint64, paymentType string, session domain.QuoteSession, ttl time.Duration) error
	Find(ctx context.Context, userID uint64, paymentType string) (*domain.QuoteSession, error)
	Delete(ctx context.Context, userID uint64, paymentType string) error
}
