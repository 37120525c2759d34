package hotel

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/hotel-engine/generic"
)

// =============================================================================
// REVENUE - Sums of active bookings by creation date
// =============================================================================

// Revenue counts a booking on the day it was created, not on the nights it
// covers. Canceled bookings contribute nothing.

// DailyRevenue sums active bookings created on the given date.
func (e *Engine) DailyRevenue(ctx context.Context, dateRaw string) (decimal.Decimal, error) {
	day, err := parseDay(dateRaw)
	if err != nil {
		return decimal.Zero, err
	}
	return e.revenueIn(ctx, generic.Period{Start: day, End: day})
}

// WeeklyRevenue sums active bookings created in the Monday-Sunday week
// containing the given date.
func (e *Engine) WeeklyRevenue(ctx context.Context, dateRaw string) (decimal.Decimal, error) {
	day, err := parseDay(dateRaw)
	if err != nil {
		return decimal.Zero, err
	}
	week, err := generic.WeekOf(day)
	if err != nil {
		return decimal.Zero, ErrInvalidDateFormat
	}
	return e.revenueIn(ctx, week)
}

func (e *Engine) revenueIn(ctx context.Context, p generic.Period) (decimal.Decimal, error) {
	total := decimal.Zero
	for b, err := range e.Bookings.Scan(ctx, func(b Booking) bool {
		return b.IsActive() && p.Contains(b.CreatedOn())
	}) {
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(b.TotalPrice)
	}
	return total, nil
}

// RevenueReport is the admin revenue view for one date.
type RevenueReport struct {
	Date   generic.Date
	Daily  decimal.Decimal
	Week   generic.Period
	Weekly decimal.Decimal
	ByDay  map[generic.Date]decimal.Decimal // every day of Week, zero included
}

// Revenue builds the daily and weekly figures for dateRaw in one scan.
func (e *Engine) Revenue(ctx context.Context, dateRaw string) (RevenueReport, error) {
	day, err := parseDay(dateRaw)
	if err != nil {
		return RevenueReport{}, err
	}
	week, err := generic.WeekOf(day)
	if err != nil {
		return RevenueReport{}, ErrInvalidDateFormat
	}

	report := RevenueReport{
		Date:   day,
		Daily:  decimal.Zero,
		Week:   week,
		Weekly: decimal.Zero,
		ByDay:  make(map[generic.Date]decimal.Decimal, 7),
	}
	for _, d := range week.Days() {
		report.ByDay[d] = decimal.Zero
	}

	for b, err := range e.Bookings.Scan(ctx, func(b Booking) bool {
		return b.IsActive() && week.Contains(b.CreatedOn())
	}) {
		if err != nil {
			return RevenueReport{}, err
		}
		created := b.CreatedOn()
		report.Weekly = report.Weekly.Add(b.TotalPrice)
		report.ByDay[created] = report.ByDay[created].Add(b.TotalPrice)
		if created == day {
			report.Daily = report.Daily.Add(b.TotalPrice)
		}
	}
	return report, nil
}

func parseDay(raw string) (generic.Date, error) {
	d := generic.ParseDate(raw)
	if d == generic.InvalidDate {
		return "", ErrInvalidDateFormat
	}
	return d, nil
}
