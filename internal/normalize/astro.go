package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

// parseClock reads a 12-hour clock string such as "06:30 AM" and returns the
// 24-hour hour and minute.
func parseClock(s string) (int, int, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", s)
	}

	hm := strings.SplitN(fields[0], ":", 2)
	if len(hm) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", s)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}

	if len(fields) == 2 {
		switch strings.ToUpper(fields[1]) {
		case "PM":
			if hour < 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		default:
			return 0, 0, fmt.Errorf("invalid period in %q", s)
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock value out of range %q", s)
	}
	return hour, minute, nil
}

// clockToEpoch places a 12-hour clock string on the calendar date of the
// reference epoch, as seen in zone.
func clockToEpoch(clock string, reference int64, zone *time.Location) (int64, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return 0, err
	}
	ref := time.Unix(reference, 0).In(zone)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, zone).Unix(), nil
}

// sunTimes derives sunrise and sunset from the first forecast day's astro
// block, defaulting to an hour either side of now.
func (n *Normalizer) sunTimes(raw *models.ProviderPayload, zone *time.Location, now time.Time) (int64, int64) {
	sunrise := now.Unix() - 3600
	sunset := now.Unix() + 3600

	day0 := firstDay(raw)
	if day0 == nil || day0.Astro == nil {
		return sunrise, sunset
	}

	reference := now.Unix()
	if raw.Location != nil && raw.Location.LocaltimeEpoch != nil {
		reference = *raw.Location.LocaltimeEpoch
	}

	if ts, err := clockToEpoch(day0.Astro.Sunrise, reference, zone); err == nil {
		sunrise = ts
	} else {
		n.logger.Debug("Using default sunrise", zap.Error(err))
	}
	if ts, err := clockToEpoch(day0.Astro.Sunset, reference, zone); err == nil {
		sunset = ts
	} else {
		n.logger.Debug("Using default sunset", zap.Error(err))
	}
	return sunrise, sunset
}

func firstDay(raw *models.ProviderPayload) *models.PayloadForecastDay {
	if raw == nil || raw.Forecast == nil || len(raw.Forecast.ForecastDay) == 0 {
		return nil
	}
	return &raw.Forecast.ForecastDay[0]
}
