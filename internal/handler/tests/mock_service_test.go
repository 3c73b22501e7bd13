package handler_test

import (
	"context"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/dto"
)

type MockFinancingService struct {
	MockCalculateResponse *dto.CalculateResponse
	MockChargesResponse   *dto.ChargesResponse
	MockScheduleResponse  *dto.ScheduleResponse
	MockSession           *domain.QuoteSession
	MockError             error

	LastUserID      uint64
	LastPaymentType string
	LastCalculate   dto.CalculateRequest
}

func (m *MockFinancingService) Calculate(ctx context.Context, req dto.CalculateRequest) (*dto.CalculateResponse, error) {
	m.LastCalculate = req
	return m.MockCalculateResponse, m.MockError
}

func (m *MockFinancingService) CalculateCharges(ctx context.Context, req dto.ChargesRequest) (*dto.ChargesResponse, error) {
	return m.MockChargesResponse, m.MockError
}

func (m *MockFinancingService) DirectSchedule(ctx context.Context, req dto.DirectScheduleRequest) (*dto.ScheduleResponse, error) {
	return m.MockScheduleResponse, m.MockError
}

func (m *MockFinancingService) SaveSession(ctx context.Context, userID uint64, paymentType string, req dto.SessionRequest) (*domain.QuoteSession, error) {
	m.LastUserID, m.LastPaymentType = userID, paymentType
	return m.MockSession, m.MockError
}

func (m *MockFinancingService) GetSession(ctx context.Context, userID uint64, paymentType string) (*domain.QuoteSession, error) {
	m.LastUserID, m.LastPaymentType = userID, paymentType
	return m.MockSession, m.MockError
}

func (m *MockFinancingService) DeleteSession(ctx context.Context, userID uint64, paymentType string) error {
	m.LastUserID, m.LastPaymentType = userID, paymentType
	return m.MockError
}

type MockLoanService struct {
	MockLoan          *domain.Loan
	MockPaginated     *domain.Paginated
	MockSchedule      *dto.ScheduleResponse
	MockPaymentResult *dto.RecordPaymentResponse
	MockPayments      []domain.Payment
	MockError         error

	LastActor      domain.Actor
	LastLoanID     uint64
	LastCustomerID uint64
	LastParams     domain.Params
	LastAsOf       time.Time
}

func (m *MockLoanService) CreateLoan(ctx context.Context, actor domain.Actor, req dto.CreateLoanRequest) (*domain.Loan, error) {
	m.LastActor = actor
	return m.MockLoan, m.MockError
}

func (m *MockLoanService) GetLoan(ctx context.Context, actor domain.Actor, loanID uint64) (*domain.Loan, error) {
	m.LastActor, m.LastLoanID = actor, loanID
	return m.MockLoan, m.MockError
}

func (m *MockLoanService) ListLoans(ctx context.Context, actor domain.Actor, customerID uint64, params domain.Params) (*domain.Paginated, error) {
	m.LastActor, m.LastCustomerID, m.LastParams = actor, customerID, params
	return m.MockPaginated, m.MockError
}

func (m *MockLoanService) GetSchedule(ctx context.Context, actor domain.Actor, loanID uint64, asOf time.Time) (*dto.ScheduleResponse, error) {
	m.LastActor, m.LastLoanID, m.LastAsOf = actor, loanID, asOf
	return m.MockSchedule, m.MockError
}

func (m *MockLoanService) RecordPayment(ctx context.Context, actor domain.Actor, loanID uint64, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	m.LastActor, m.LastLoanID = actor, loanID
	return m.MockPaymentResult, m.MockError
}

func (m *MockLoanService) ListPayments(ctx context.Context, actor domain.Actor, loanID uint64) ([]domain.Payment, error) {
	m.LastActor, m.LastLoanID = actor, loanID
	return m.MockPayments, m.MockError
}
