package presenter

import (
	"time"

	financinghandler "github.com/fazamuttaqien/ipap-financing/internal/handler/financing"
	loanhandler "github.com/fazamuttaqien/ipap-financing/internal/handler/loan"
	loanrepo "github.com/fazamuttaqien/ipap-financing/internal/repository/loan"
	paymentrepo "github.com/fazamuttaqien/ipap-financing/internal/repository/payment"
	sessionrepo "github.com/fazamuttaqien/ipap-financing/internal/repository/session"
	financingsrv "github.com/fazamuttaqien/ipap-financing/internal/service/financing"
	loansrv "github.com/fazamuttaqien/ipap-financing/internal/service/loan"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"
	"github.com/fazamuttaqien/ipap-financing/pkg/telemetry"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Presenter struct {
	FinancingPresenter *financinghandler.FinancingHandler
	LoanPresenter      *loanhandler.LoanHandler
}

func NewPresenter(
	db *gorm.DB,
	redisClient *redis.Client,
	engine *financing.Engine,
	sessionTTL time.Duration,
	tel *telemetry.OpenTelemetry,
) Presenter {
	// Repository
	loanRepositoryMeter := tel.MeterProvider.Meter("loan-repository-meter")
	loanRepositoryTracer := tel.TracerProvider.Tracer("loan-repository-tracer")
	loanRepository := loanrepo.NewLoanRepository(
		db,
		loanRepositoryMeter,
		loanRepositoryTracer,
		tel.Log,
	)

	paymentRepositoryMeter := tel.MeterProvider.Meter("payment-repository-meter")
	paymentRepositoryTracer := tel.TracerProvider.Tracer("payment-repository-tracer")
	paymentRepository := paymentrepo.NewPaymentRepository(
		db,
		paymentRepositoryMeter,
		paymentRepositoryTracer,
		tel.Log,
	)

	sessionRepositoryMeter := tel.MeterProvider.Meter("session-repository-meter")
	sessionRepositoryTracer := tel.TracerProvider.Tracer("session-repository-tracer")
	sessionRepository := sessionrepo.NewSessionRepository(
		redisClient,
		sessionRepositoryMeter,
		sessionRepositoryTracer,
		tel.Log,
	)

	// Service
	financingServiceMeter := tel.MeterProvider.Meter("financing-service-meter")
	financingServiceTracer := tel.TracerProvider.Tracer("financing-service-trace")
	financingService := financingsrv.NewFinancingService(
		engine,
		sessionRepository,
		sessionTTL,
		financingServiceMeter,
		financingServiceTracer,
		tel.Log,
	)

	loanServiceMeter := tel.MeterProvider.Meter("loan-service-meter")
	loanServiceTracer := tel.TracerProvider.Tracer("loan-service-trace")
	loanService := loansrv.NewLoanService(
		db,
		engine,
		loanRepository,
		paymentRepository,
		loanServiceMeter,
		loanServiceTracer,
		tel.Log,
	)

	// Handler
	financingHandlerMeter := tel.MeterProvider.Meter("financing-handler-meter")
	financingHandlerTracer := tel.TracerProvider.Tracer("financing-handler-trace")
	financingHandler := financinghandler.NewFinancingHandler(
		financingService,
		financingHandlerMeter,
		financingHandlerTracer,
		tel.Log,
	)

	loanHandlerMeter := tel.MeterProvider.Meter("loan-handler-meter")
	loanHandlerTracer := tel.TracerProvider.Tracer("loan-handler-trace")
	loanHandler := loanhandler.NewLoanHandler(
		loanService,
		loanHandlerMeter,
		loanHandlerTracer,
		tel.Log,
	)

	return Presenter{
		FinancingPresenter: financingHandler,
		LoanPresenter:      loanHandler,
	}
}
