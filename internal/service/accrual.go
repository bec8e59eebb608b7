package service

import (
	"time"

	"pto-tracker/internal/config"
	"pto-tracker/pkg/weekends"

	"github.com/shopspring/decimal"
)

// Accrual is the projected PTO balance on the first day of a trip.
type Accrual struct {
	HoursAvailable decimal.Decimal `json:"hours_available_on_start"`
	DaysAvailable  decimal.Decimal `json:"days_available_on_start"`
}

type AccrualService struct {
	workDay decimal.Decimal
}

func NewAccrualService(cfg *config.Config) *AccrualService {
	return &AccrualService{workDay: decimal.NewFromInt(int64(cfg.WorkDay))}
}

// Calculate adds perQuarter hours to available for every 1st and 15th of a
// month from today up to and including tripStart.
func (s *AccrualService) Calculate(today, tripStart time.Time, perQuarter, available decimal.Decimal) Accrual {
	pointer := weekends.Truncate(today)
	tripStart = weekends.Truncate(tripStart)

	hours := available
	for !pointer.After(tripStart) {
		if pointer.Day() == 1 || pointer.Day() == 15 {
			hours = hours.Add(perQuarter)
		}
		pointer = nextAccrualDay(pointer)
	}

	days := decimal.Zero
	if !s.workDay.IsZero() {
		days = hours.Div(s.workDay)
	}
	return Accrual{
		HoursAvailable: hours.Round(2),
		DaysAvailable:  days.Round(2),
	}
}

// nextAccrualDay is the next 15th, or the 1st of the next month once the
// 15th has been reached.
func nextAccrualDay(d time.Time) time.Time {
	if d.Day() < 15 {
		return time.Date(d.Year(), d.Month(), 15, 0, 0, 0, 0, d.Location())
	}
	return time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, d.Location())
}
