package repository_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/fazamuttaqien/ipap-financing/infra/database"
	"github.com/fazamuttaqien/ipap-financing/internal/model"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB returns a migrated in-memory database private to name.
func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := database.Connect(sqlite.Open(dsn), false)
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	return db
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleLoan(contract string, customerID uint64) model.Loan {
	return model.Loan{
		ContractNumber:      contract,
		CustomerID:          customerID,
		CreatedBy:           customerID,
		QuoteType:           financing.ThirdPartyQuoteType,
		PaymentFrequency:    string(financing.Weekly),
		Duration:            3,
		DurationUnit:        string(financing.DurationMonths),
		PremiumAmount:       d("1000.00"),
		InitialDeposit:      d("200.00"),
		StickerFee:          d("52.00"),
		ActualProcessingFee: d("56.00"),
		LoanAmount:          d("816.00"),
		InterestRate:        decimal.Zero,
		TotalInterest:       decimal.Zero,
		TotalRepayment:      d("816.00"),
		TotalPaid:           decimal.Zero,
		NoOfInstallments:    12,
		Status:              model.LoanActive,
		StartDate:           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}
