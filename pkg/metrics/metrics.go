package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Calculations counts engine invocations by entry point and outcome.
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipap",
			Name:      "financing_calculations_total",
			Help:      "Number of financing engine calculations",
		},
		[]string{"operation", "status"},
	)

	// CalculationErrors counts rejected engine inputs by error type.
	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipap",
			Name:      "financing_calculation_errors_total",
			Help:      "Number of financing calculations rejected by validation",
		},
		[]string{"operation", "error_type"},
	)

	LoansCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipap",
			Name:      "loans_created_total",
			Help:      "Number of premium financing loans created",
		},
		[]string{"payment_frequency", "quote_type"},
	)

	PaymentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipap",
			Name:      "loan_payments_recorded_total",
			Help:      "Number of loan payments recorded in the journal",
		},
		[]string{"status"},
	)
)

// Handler exposes the default Prometheus registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
