package domain

import (
	"time"

	"github.com/fazamuttaqien/ipap-financing/pkg/financing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

type Role string

const (
	AdminRole    Role = "admin"
	AgentRole    Role = "agent"
	CustomerRole Role = "customer"
)

type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanPaidOff  LoanStatus = "PAID_OFF"
	LoanCanceled LoanStatus = "CANCELLED"
)

// Loan is an accepted financing quote. The schedule is not stored; it is
// rebuilt from these parameters whenever it is needed.
type Loan struct {
	ID               uint64
	ContractNumber   string
	CustomerID       uint64
	CreatedBy        uint64
	QuoteType        string
	PaymentFrequency financing.Frequency
	Duration         int
	DurationUnit     financing.DurationUnit

	PremiumAmount       decimal.Decimal
	InitialDeposit      decimal.Decimal
	StickerFee          decimal.Decimal
	ActualProcessingFee decimal.Decimal
	LoanAmount          decimal.Decimal
	InterestRate        decimal.Decimal
	TotalInterest       decimal.Decimal
	TotalRepayment      decimal.Decimal
	TotalPaid           decimal.Decimal
	NoOfInstallments    int

	Status    LoanStatus
	StartDate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Balance is what is still owed on the loan.
func (l Loan) Balance() decimal.Decimal {
	return l.TotalRepayment.Sub(l.TotalPaid)
}

func (l Loan) Persisted() financing.PersistedLoan {
	return financing.PersistedLoan{
		InitialDeposit:   l.InitialDeposit,
		LoanAmount:       l.LoanAmount,
		TotalRepayment:   l.TotalRepayment,
		TotalPaid:        l.TotalPaid,
		NoOfInstallments: l.NoOfInstallments,
		PaymentFrequency: string(l.PaymentFrequency),
		Duration:         l.Duration,
		StartDate:        l.StartDate,
	}
}

// Payment is one entry of a loan's payment journal.
type Payment struct {
	ID         uint64
	LoanID     uint64
	Reference  string
	Amount     decimal.Decimal
	Method     string
	RecordedBy uint64
	PaidAt     time.Time
	CreatedAt  time.Time
}

// QuoteSession carries the inputs of an in-progress quote between the steps
// of the quoting flow.
type QuoteSession struct {
	PremiumAmount    decimal.Decimal        `json:"premium_amount"`
	InitialDeposit   decimal.Decimal        `json:"initial_deposit"`
	Duration         int                    `json:"duration"`
	DurationUnit     financing.DurationUnit `json:"duration_unit"`
	PaymentFrequency string                 `json:"payment_frequency"`
	QuoteType        string                 `json:"quote_type"`
	CustomerID       uint64                 `json:"customer_id,omitempty"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type JwtCustomClaims struct {
	UserID uint64 `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

type Params struct {
	Status string
	Page   int
	Limit  int
}

type Paginated struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint64
	Role   Role
}

// CanAccess reports whether the actor may see loans of customerID.
// Customers only see their own; agents and admins see every loan.
func (a Actor) CanAccess(customerID uint64) bool {
	if a.Role == CustomerRole {
		return a.UserID == customerID
	}
	return a.Role == AgentRole || a.Role == AdminRole
}
