package financing

import "errors"

var (
	ErrInvalidPremium   = errors.New("premium amount must be greater than zero, in whole cents")
	ErrInvalidDeposit   = errors.New("initial deposit must be non-negative, in whole cents and less than the premium amount")
	ErrInvalidDuration  = errors.New("duration must be a positive whole number within the installment limit")
	ErrInvalidFrequency = errors.New("payment frequency must be one of daily, weekly or monthly")
	ErrInvalidQuoteType = errors.New("quote type is required")
	ErrInvalidSchedule  = errors.New("schedule amount must cover at least one cent per installment")
	ErrInvalidPolicy    = errors.New("invalid financing policy")
)

// IsValidationError reports whether err originates from input validation in
// this package.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPremium) ||
		errors.Is(err, ErrInvalidDeposit) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidFrequency) ||
		errors.Is(err, ErrInvalidQuoteType) ||
		errors.Is(err, ErrInvalidSchedule)
}

// ErrorType returns a stable snake_case identifier for a validation error,
// or "unknown" when err is not one of ours.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPremium):
		return "invalid_premium"
	case errors.Is(err, ErrInvalidDeposit):
		return "invalid_deposit"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrInvalidFrequency):
		return "invalid_frequency"
	case errors.Is(err, ErrInvalidQuoteType):
		return "invalid_quote_type"
	case errors.Is(err, ErrInvalidSchedule):
		return "invalid_schedule"
	case errors.Is(err, ErrInvalidPolicy):
		return "invalid_policy"
	default:
		return "unknown"
	}
}
