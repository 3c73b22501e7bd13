package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fazamuttaqien/ipap-financing/config"
	"github.com/fazamuttaqien/ipap-financing/infra/database"
	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/model"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"
	ratelimiter "github.com/fazamuttaqien/ipap-financing/pkg/rate-limiter"
	"github.com/fazamuttaqien/ipap-financing/pkg/telemetry"
	"github.com/fazamuttaqien/ipap-financing/presenter"
	"github.com/fazamuttaqien/ipap-financing/router"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

const secret = "router-test-secret"

type RouterTestSuite struct {
	suite.Suite
	app *fiber.App
}

func (suite *RouterTestSuite) SetupSuite() {
	db, err := database.Connect(sqlite.Open("file:router_test?mode=memory&cache=shared"), false)
	suite.Require().NoError(err)
	suite.Require().NoError(model.AutoMigrate(db))

	// Nothing listens here: sessions and rate-limit state degrade, the
	// SQL-backed routes still work.
	redisClient := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	suite.T().Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		SERVICE_NAME:       "ipap-financing-test",
		JWT_SECRET_KEY:     secret,
		CORS_ALLOW_ORIGINS: "http://localhost:5000",
		REQUESTS_METRIC:    true,
	}
	tel := telemetry.NewNoop(zap.NewNop())

	p := presenter.NewPresenter(db, redisClient, financing.Default(), time.Hour, tel)
	limiter := ratelimiter.NewRateLimiter(redisClient, 1000, time.Minute)
	suite.app = router.NewRouter(p, db, redisClient, tel, cfg, limiter)
}

func (suite *RouterTestSuite) token(userID uint64, role domain.Role) string {
	claims := &domain.JwtCustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	suite.Require().NoError(err)
	return signed
}

func (suite *RouterTestSuite) do(token, method, url string, body any) (int, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := suite.app.Test(req, -1)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func quote() map[string]any {
	return map[string]any{
		"premium_amount":    "1000",
		"initial_deposit":   "200",
		"duration":          3,
		"payment_frequency": "weekly",
		"quote_type":        financing.ThirdPartyQuoteType,
		"start_date":        "2025-03-01",
	}
}

func (suite *RouterTestSuite) TestHealth_ReportsRedisDown() {
	status, body := suite.do("", http.MethodGet, "/health", nil)

	suite.Equal(fiber.StatusServiceUnavailable, status)
	suite.Equal("redis connection failed", body["error"])
}

func (suite *RouterTestSuite) TestMetricsEndpoint() {
	resp, err := suite.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)

	suite.Require().NoError(err)
	suite.Equal(fiber.StatusOK, resp.StatusCode)
}

func (suite *RouterTestSuite) TestUnknownRoute() {
	status, body := suite.do("", http.MethodGet, "/nope", nil)

	suite.Equal(fiber.StatusNotFound, status)
	suite.Equal("Resource not found", body["message"])
}

func (suite *RouterTestSuite) TestCalculate_RequiresToken() {
	status, _ := suite.do("", http.MethodPost, "/api/v1/financing/calculate", quote())

	suite.Equal(fiber.StatusUnauthorized, status)
}

func (suite *RouterTestSuite) TestCalculate_EndToEnd() {
	status, body := suite.do(suite.token(1, domain.AgentRole), http.MethodPost, "/api/v1/financing/calculate", quote())

	suite.Require().Equal(fiber.StatusOK, status)
	suite.Equal("817.04", body["total_repayment"])
	suite.Equal("17.04", body["actual_processing_fee"])
	suite.Equal(float64(12), body["noof_installments"])
	suite.Len(body["schedule"], 12)
}

func (suite *RouterTestSuite) TestCalculate_RejectsUnserviceableInput() {
	agent := suite.token(1, domain.AgentRole)

	status, body := suite.do(agent, http.MethodPost, "/api/v1/financing/schedule", map[string]any{
		"total_repayment":   "1000",
		"noof_installments": int64(1) << 40,
		"payment_frequency": "monthly",
		"start_date":        "2025-03-01",
	})
	suite.Equal(fiber.StatusBadRequest, status)
	suite.Equal("validation_error", body["error_type"])

	subCent := quote()
	subCent["premium_amount"] = "1000.005"
	status, body = suite.do(agent, http.MethodPost, "/api/v1/financing/calculate", subCent)
	suite.Equal(fiber.StatusUnprocessableEntity, status)
	suite.Equal("invalid_premium", body["error_type"])

	tiny := quote()
	tiny["premium_amount"] = "0.01"
	tiny["initial_deposit"] = "0"
	tiny["quote_type"] = "Comprehensive"
	tiny["duration"] = 1
	tiny["payment_frequency"] = "daily"
	status, body = suite.do(agent, http.MethodPost, "/api/v1/financing/calculate", tiny)
	suite.Equal(fiber.StatusUnprocessableEntity, status)
	suite.Equal("invalid_schedule", body["error_type"])
}

func (suite *RouterTestSuite) TestLoanLifecycle() {
	agent := suite.token(1, domain.AgentRole)
	owner := suite.token(7, domain.CustomerRole)
	stranger := suite.token(9, domain.CustomerRole)
	admin := suite.token(2, domain.AdminRole)

	body := quote()
	body["customer_id"] = 7
	status, loan := suite.do(agent, http.MethodPost, "/api/v1/loans", body)
	suite.Require().Equal(fiber.StatusCreated, status)
	loanURL := fmt.Sprintf("/api/v1/loans/%.0f", loan["id"].(float64))

	status, _ = suite.do(owner, http.MethodGet, loanURL, nil)
	suite.Equal(fiber.StatusOK, status)

	status, _ = suite.do(stranger, http.MethodGet, loanURL, nil)
	suite.Equal(fiber.StatusForbidden, status)

	status, _ = suite.do(owner, http.MethodPost, loanURL+"/payments", map[string]any{"amount": "68.08", "method": "momo"})
	suite.Equal(fiber.StatusForbidden, status)

	status, paid := suite.do(admin, http.MethodPost, loanURL+"/payments", map[string]any{
		"amount": "68.08", "method": "momo", "paid_at": "2025-03-08",
	})
	suite.Require().Equal(fiber.StatusCreated, status)
	suite.Equal("68.08", paid["loan"].(map[string]any)["total_paid"])

	status, _ = suite.do(agent, http.MethodPost, loanURL+"/payments", map[string]any{"amount": "5000", "method": "cash"})
	suite.Equal(fiber.StatusConflict, status)

	status, schedule := suite.do(owner, http.MethodGet, loanURL+"/schedule?as_of=2025-03-09", nil)
	suite.Require().Equal(fiber.StatusOK, status)
	first := schedule["schedule"].([]any)[0].(map[string]any)
	suite.Equal(string(financing.StatusPaid), first["status"])
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
