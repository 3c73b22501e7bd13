package financing

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// ScheduleItem is one installment of a repayment schedule.
type ScheduleItem struct {
	InstallmentNumber int             `json:"installment_number"`
	PaymentAmount     decimal.Decimal `json:"payment_amount"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	DueDate           time.Time       `json:"due_date"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	Status            Status          `json:"status"`
	DaysOverdue       int             `json:"days_overdue"`
}

// GenerateSchedule splits amount into count installments. Installments 1..n-1
// carry the amount divided by count, floored to the cent; the last one takes
// whatever is left so the schedule sums to amount exactly. An amount too small
// to give every regular installment at least one cent is rejected.
func GenerateSchedule(amount decimal.Decimal, count int, start time.Time, frequency Frequency) ([]ScheduleItem, error) {
	if count < 1 || count > MaxInstallments {
		return nil, fmt.Errorf("%w: installment count %d, want 1..%d", ErrInvalidDuration, count, MaxInstallments)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidSchedule, amount)
	}
	if !frequency.Valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidFrequency, frequency)
	}

	regular, last := splitInstallments(amount, count)
	if count > 1 && !regular.IsPositive() {
		return nil, fmt.Errorf("%w: %s over %d installments is below one cent each", ErrInvalidSchedule, amount, count)
	}

	items := make([]ScheduleItem, 0, count)
	remaining := amount
	for k := 1; k <= count; k++ {
		payment := regular
		if k == count {
			payment = last
		}
		remaining = remaining.Sub(payment)

		items = append(items, ScheduleItem{
			InstallmentNumber: k,
			PaymentAmount:     payment,
			AmountPaid:        decimal.Zero,
			DueDate:           frequency.DueDate(start, k),
			RemainingBalance:  remaining,
			Status:            StatusPending,
		})
	}

	return items, nil
}

// splitInstallments returns the regular installment and the last installment
// for amount spread over count payments.
func splitInstallments(amount decimal.Decimal, count int) (regular, last decimal.Decimal) {
	if count == 1 {
		return decimal.Zero, amount
	}
	regular = amount.Div(decimal.NewFromInt(int64(count))).RoundFloor(2)
	last = amount.Sub(regular.Mul(decimal.NewFromInt(int64(count - 1))))
	return regular, last
}

// ProjectScheduleStatus allocates totalPaid to the installments in ascending
// order and derives each one's status as of asOf. The input slice is not
// modified.
func ProjectScheduleStatus(schedule []ScheduleItem, totalPaid decimal.Decimal, asOf time.Time) []ScheduleItem {
	projected := slices.Clone(schedule)
	slices.SortStableFunc(projected, func(a, b ScheduleItem) int {
		return a.InstallmentNumber - b.InstallmentNumber
	})

	available := decimal.Max(totalPaid, decimal.Zero)
	cumulativeDue := decimal.Zero
	cumulativePaid := decimal.Zero

	for i := range projected {
		item := &projected[i]

		paid := decimal.Min(available, item.PaymentAmount)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		available = available.Sub(paid)
		cumulativePaid = cumulativePaid.Add(paid)
		cumulativeDue = cumulativeDue.Add(item.PaymentAmount)

		item.AmountPaid = paid
		item.DaysOverdue = 0

		switch {
		case cumulativePaid.GreaterThanOrEqual(cumulativeDue):
			item.Status = StatusPaid
		case item.DueDate.Before(asOf):
			item.Status = StatusOverdue
			item.DaysOverdue = int(asOf.Sub(item.DueDate) / (24 * time.Hour))
		default:
			item.Status = StatusPending
		}
	}

	return projected
}

// Summary aggregates a projected schedule.
type Summary struct {
	Installments   int             `json:"installments"`
	PaidCount      int             `json:"paid_count"`
	PendingCount   int             `json:"pending_count"`
	OverdueCount   int             `json:"overdue_count"`
	TotalDue       decimal.Decimal `json:"total_due"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	MaxDaysOverdue int             `json:"max_days_overdue"`
	NextDue        *ScheduleItem   `json:"next_due,omitempty"`
}

func Summarize(schedule []ScheduleItem) Summary {
	s := Summary{
		Installments:  len(schedule),
		TotalDue:      decimal.Zero,
		TotalPaid:     decimal.Zero,
		OverdueAmount: decimal.Zero,
	}

	for i := range schedule {
		item := schedule[i]
		s.TotalDue = s.TotalDue.Add(item.PaymentAmount)
		s.TotalPaid = s.TotalPaid.Add(item.AmountPaid)

		switch item.Status {
		case StatusPaid:
			s.PaidCount++
		case StatusOverdue:
			s.OverdueCount++
			s.OverdueAmount = s.OverdueAmount.Add(item.PaymentAmount.Sub(item.AmountPaid))
			if item.DaysOverdue > s.MaxDaysOverdue {
				s.MaxDaysOverdue = item.DaysOverdue
			}
		default:
			s.PendingCount++
		}

		if s.NextDue == nil && item.Status != StatusPaid {
			s.NextDue = &item
		}
	}

	s.Outstanding = s.TotalDue.Sub(s.TotalPaid)
	return s
}
