package common

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	ErrLoanNotFound    = errors.New("loan not found")
	ErrSessionNotFound = errors.New("quote session not found")
	ErrOverpayment     = errors.New("payment exceeds the outstanding balance")
	ErrLoanClosed      = errors.New("loan is closed to further payments")
	ErrForbidden       = errors.New("access to this loan is not allowed")
	ErrInvalidAmount   = errors.New("payment amount must be positive with at most two decimals")
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
	ErrCustomerMissing = errors.New("customer_id is required when acting for a customer")
)

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// ParseDate parses a YYYY-MM-DD value as midnight UTC. An empty value yields
// fallback.
func ParseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}

	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}

	return t, nil
}
