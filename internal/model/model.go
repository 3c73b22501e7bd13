package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Loan represents the loans table
type Loan struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ContractNumber   string `gorm:"type:varchar(50);not null;uniqueIndex" json:"contract_number"`
	CustomerID       uint64 `gorm:"not null;index" json:"customer_id"`
	CreatedBy        uint64 `gorm:"not null" json:"created_by"`
	QuoteType        string `gorm:"type:varchar(50);not null" json:"quote_type"`
	PaymentFrequency string `gorm:"type:varchar(10);not null" json:"payment_frequency"`
	Duration         int    `gorm:"not null" json:"duration"`
	DurationUnit     string `gorm:"type:varchar(20);not null;default:'months'" json:"duration_unit"`

	PremiumAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"premium_amount"`
	InitialDeposit      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"initial_deposit"`
	StickerFee          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"sticker_fee"`
	ActualProcessingFee decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"actual_processing_fee"`
	LoanAmount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"loan_amount"`
	InterestRate        decimal.Decimal `gorm:"type:decimal(9,6);not null" json:"interest_rate"`
	TotalInterest       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_interest"`
	TotalRepayment      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_repayment"`
	TotalPaid           decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_paid"`
	NoOfInstallments    int             `gorm:"not null" json:"noof_installments"`

	Status    LoanStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Payments []Payment `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
}

// LoanStatus enum for loan status
type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanPaidOff  LoanStatus = "PAID_OFF"
	LoanCanceled LoanStatus = "CANCELLED"
)

// Payment represents the loan_payments journal table
type Payment struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID     uint64          `gorm:"not null;index" json:"loan_id"`
	Reference  string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Method     string          `gorm:"type:varchar(30);not null" json:"method"`
	RecordedBy uint64          `gorm:"not null" json:"recorded_by"`
	PaidAt     time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Loan Loan `gorm:"foreignKey:LoanID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Payment) TableName() string {
	return "loan_payments"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Loan{}, &Payment{})
}
