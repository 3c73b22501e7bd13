package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/model"
	"github.com/fazamuttaqien/ipap-financing/internal/repository"
	paymentrepo "github.com/fazamuttaqien/ipap-financing/internal/repository/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	noop_metric "go.opentelemetry.io/otel/metric/noop"
	noop_trace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentRepositoryTestSuite struct {
	suite.Suite
	db                *gorm.DB
	ctx               context.Context
	paymentRepository repository.PaymentRepository
	loan              model.Loan
}

func (suite *PaymentRepositoryTestSuite) SetupSuite() {
	suite.db = openTestDB(suite.T(), "payment_repository_test")
	suite.ctx = context.Background()

	tracer := noop_trace.NewTracerProvider().Tracer("test-payment-repository-tracer")
	meter := noop_metric.NewMeterProvider().Meter("test-payment-repository-meter")

	suite.paymentRepository = paymentrepo.NewPaymentRepository(suite.db, meter, tracer, zap.NewNop())
}

func (suite *PaymentRepositoryTestSuite) TearDownSuite() {
	if sqlDB, err := suite.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (suite *PaymentRepositoryTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM loan_payments")
	suite.db.Exec("DELETE FROM loans")

	suite.loan = sampleLoan("IPAP-PAY-1", 7)
	require.NoError(suite.T(), suite.db.Create(&suite.loan).Error)
}

func (suite *PaymentRepositoryTestSuite) TestCreate_Success() {
	payment := &domain.Payment{
		LoanID:     suite.loan.ID,
		Reference:  "PAY-001",
		Amount:     d("68.08"),
		Method:     "momo",
		RecordedBy: 7,
		PaidAt:     time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
	}

	err := suite.paymentRepository.Create(suite.ctx, payment)

	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), payment.ID)

	var saved model.Payment
	require.NoError(suite.T(), suite.db.First(&saved, payment.ID).Error)
	assert.Equal(suite.T(), "PAY-001", saved.Reference)
	assert.True(suite.T(), d("68.08").Equal(saved.Amount))
}

func (suite *PaymentRepositoryTestSuite) TestCreate_DuplicateReference() {
	first := &domain.Payment{LoanID: suite.loan.ID, Reference: "PAY-DUP", Amount: d("10"), Method: "cash", PaidAt: time.Now()}
	require.NoError(suite.T(), suite.paymentRepository.Create(suite.ctx, first))

	second := &domain.Payment{LoanID: suite.loan.ID, Reference: "PAY-DUP", Amount: d("10"), Method: "cash", PaidAt: time.Now()}
	assert.Error(suite.T(), suite.paymentRepository.Create(suite.ctx, second))
}

func (suite *PaymentRepositoryTestSuite) TestFindByLoanID_OrderedByPaidAt() {
	paidAt := []time.Time{
		time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, at := range paidAt {
		payment := &domain.Payment{
			LoanID:    suite.loan.ID,
			Reference: "PAY-ORD-" + string(rune('A'+i)),
			Amount:    d("68.08"),
			Method:    "bank",
			PaidAt:    at,
		}
		require.NoError(suite.T(), suite.paymentRepository.Create(suite.ctx, payment))
	}

	payments, err := suite.paymentRepository.FindByLoanID(suite.ctx, suite.loan.ID)

	require.NoError(suite.T(), err)
	require.Len(suite.T(), payments, 3)
	assert.Equal(suite.T(), "PAY-ORD-B", payments[0].Reference)
	assert.Equal(suite.T(), "PAY-ORD-C", payments[1].Reference)
	assert.Equal(suite.T(), "PAY-ORD-A", payments[2].Reference)
}

func (suite *PaymentRepositoryTestSuite) TestFindByLoanID_Empty() {
	payments, err := suite.paymentRepository.FindByLoanID(suite.ctx, suite.loan.ID+100)

	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), payments)
}

func TestPaymentRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentRepositoryTestSuite))
}
