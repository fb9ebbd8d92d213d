package core

import (
	"sort"
	"time"
)

// AggregateTotals is the per-period summary shown on the dashboard cards.
// It is always recomputed from the full visible transaction set, never
// patched incrementally.
type AggregateTotals struct {
	Income  Money
	Expense Money
	Balance Money
}

// MonthPoint is one chart bucket: the net signed amount of a calendar month.
type MonthPoint struct {
	Year  int
	Month time.Month
	Net   Money
}

// Sum computes income, expense and balance totals. Pure and
// order-independent: any permutation of txs yields the same result.
func Sum(txs []Transaction) AggregateTotals {
	var in, out int64
	for _, t := range txs {
		switch t.Type {
		case Income:
			in += t.Amount.Cents
		case Expense:
			out += t.Amount.Cents
		}
	}
	return AggregateTotals{
		Income:  Money{Cents: in},
		Expense: Money{Cents: out},
		Balance: Money{Cents: in - out},
	}
}

// MonthlySeries buckets transactions by the calendar month of OccurredAt,
// summing signed amounts per bucket, and returns the buckets in
// chronological order. Records without a timestamp (not yet stamped by the
// store) contribute to no bucket.
func MonthlySeries(txs []Transaction) []MonthPoint {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]int64)
	for _, t := range txs {
		if t.OccurredAt.IsZero() {
			continue
		}
		k := key{year: t.OccurredAt.Year(), month: t.OccurredAt.Month()}
		buckets[k] += t.Signed()
	}

	series := make([]MonthPoint, 0, len(buckets))
	for k, net := range buckets {
		series = append(series, MonthPoint{Year: k.year, Month: k.month, Net: Money{Cents: net}})
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Year != series[j].Year {
			return series[i].Year < series[j].Year
		}
		return series[i].Month < series[j].Month
	})
	return series
}

// MonthRange returns the inclusive bounds of a calendar month in UTC, from
// the first instant of its first day to the last instant of its last day.
func MonthRange(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
