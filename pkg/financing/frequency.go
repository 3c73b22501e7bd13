package financing

import (
	"fmt"
	"strings"
	"time"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// installmentsPerMonth is the business convention used to convert a
// duration authored in months into installments.
func (f Frequency) installmentsPerMonth() int {
	switch f {
	case Daily:
		return 30
	case Weekly:
		return 4
	default:
		return 1
	}
}

func (f Frequency) periodsPerYear() int64 {
	switch f {
	case Daily:
		return 365
	case Weekly:
		return 52
	default:
		return 12
	}
}

// DueDate returns the due date of installment k (1-based) counted from start.
// Monthly steps keep the day of month of start, clamped to the last day of
// shorter months.
func (f Frequency) DueDate(start time.Time, k int) time.Time {
	switch f {
	case Daily:
		return start.AddDate(0, 0, k)
	case Weekly:
		return start.AddDate(0, 0, 7*k)
	default:
		return addMonthsClamped(start, k)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return firstOfTarget.AddDate(0, 0, d-1)
}

// ParseFrequency parses a frequency string case-insensitively. Unknown values
// fail with ErrInvalidFrequency unless permissive is set, in which case they
// are treated as monthly.
func ParseFrequency(s string, permissive bool) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if f.Valid() {
		return f, nil
	}
	if permissive {
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidFrequency, s)
}

// DurationUnit says how a duration value is expressed.
type DurationUnit string

const (
	// DurationMonths durations are converted to installments by NormalizeDuration.
	DurationMonths DurationUnit = "months"
	// DurationInstallments durations are already counted in installments.
	DurationInstallments DurationUnit = "installments"
)

// NormalizeDuration converts a duration authored in months into the number of
// installments for the given frequency. The result never exceeds
// MaxInstallments.
func NormalizeDuration(durationInMonths int, frequency Frequency) (int, error) {
	if durationInMonths < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDuration, durationInMonths)
	}
	perMonth := frequency.installmentsPerMonth()
	if durationInMonths > MaxInstallments/perMonth {
		return 0, fmt.Errorf("%w: %d months of %s installments exceeds %d installments",
			ErrInvalidDuration, durationInMonths, frequency, MaxInstallments)
	}
	return durationInMonths * perMonth, nil
}

// InstallmentCount resolves a duration in the given unit to an installment
// count. Installment-mode durations are returned as-is.
func InstallmentCount(duration int, unit DurationUnit, frequency Frequency) (int, error) {
	switch unit {
	case DurationInstallments:
		if duration < 1 || duration > MaxInstallments {
			return 0, fmt.Errorf("%w: got %d, want 1..%d", ErrInvalidDuration, duration, MaxInstallments)
		}
		return duration, nil
	case DurationMonths, "":
		return NormalizeDuration(duration, frequency)
	default:
		return 0, fmt.Errorf("%w: unknown duration unit %q", ErrInvalidDuration, unit)
	}
}
