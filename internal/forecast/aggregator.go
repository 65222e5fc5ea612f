// Package forecast groups a forecast series into calendar days and picks one
// representative sample per day.
package forecast

import (
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

var ErrEmptyDay = errors.New("forecast day has no samples")

const (
	noonWindowStart = 11
	noonWindowEnd   = 13
)

// DayBucket is the samples of one calendar day in arrival order.
type DayBucket struct {
	Date    time.Time
	Samples []models.ForecastSample
}

// Aggregator buckets samples by calendar date in the viewer's zone, not the
// forecast location's zone.
type Aggregator struct {
	loc *time.Location
}

func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{loc: loc}
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

// GroupByDay returns one bucket per calendar date, ordered by the first
// occurrence of each date in the series.
func (a *Aggregator) GroupByDay(series models.ForecastSeries) []DayBucket {
	index := make(map[dateKey]int)
	var buckets []DayBucket

	for _, s := range series.Samples {
		t := time.Unix(s.Timestamp, 0).In(a.loc)
		key := dateKey{t.Year(), t.Month(), t.Day()}

		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, DayBucket{
				Date: time.Date(key.year, key.month, key.day, 0, 0, 0, 0, a.loc),
			})
		}
		buckets[i].Samples = append(buckets[i].Samples, s)
	}
	return buckets
}

// Summarize picks the first sample whose local hour is within 11..13, falling
// back to the middle sample in arrival order.
func (a *Aggregator) Summarize(day []models.ForecastSample) (models.DailySummary, error) {
	if len(day) == 0 {
		return models.DailySummary{}, ErrEmptyDay
	}

	pick := day[len(day)/2]
	for _, s := range day {
		hour := time.Unix(s.Timestamp, 0).In(a.loc).Hour()
		if hour >= noonWindowStart && hour <= noonWindowEnd {
			pick = s
			break
		}
	}

	t := time.Unix(pick.Timestamp, 0).In(a.loc)
	return models.DailySummary{
		Date:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.loc),
		Sample: pick,
	}, nil
}

// DailySummaries summarizes at most maxDays whole days. A non-positive
// maxDays means no limit.
func (a *Aggregator) DailySummaries(series models.ForecastSeries, maxDays int) []models.DailySummary {
	buckets := a.GroupByDay(series)
	if maxDays > 0 && len(buckets) > maxDays {
		buckets = buckets[:maxDays]
	}

	summaries := make([]models.DailySummary, 0, len(buckets))
	for _, b := range buckets {
		summary, err := a.Summarize(b.Samples)
		if err != nil {
			continue
		}
		summary.Date = b.Date
		summaries = append(summaries, summary)
	}
	return summaries
}
