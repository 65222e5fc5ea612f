// Package format holds the display helpers the dashboard view is rendered with.
package format

import (
	"fmt"
	"math"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// roundHalfUp rounds .5 towards positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Temperature renders a temperature such as "21°C".
func Temperature(temp float64, units models.UnitSystem) string {
	return fmt.Sprintf("%d°%s", roundHalfUp(temp), units.TemperatureSymbol())
}

// WindSpeed renders a wind speed such as "5 m/s" or "11 mph".
func WindSpeed(speed float64, units models.UnitSystem) string {
	return fmt.Sprintf("%d %s", roundHalfUp(speed), units.WindSpeedUnit())
}

// Day returns the short weekday of an epoch timestamp in loc.
func Day(timestamp int64, loc *time.Location) string {
	return time.Unix(timestamp, 0).In(loc).Format("Mon")
}

// Clock renders the wall-clock time at a UTC offset, e.g. "3:04 PM".
func Clock(timestamp int64, utcOffset int) string {
	zone := time.FixedZone("", utcOffset)
	return time.Unix(timestamp, 0).In(zone).Format("3:04 PM")
}

func IsDaytime(now, sunrise, sunset int64) bool {
	return now >= sunrise && now <= sunset
}

// IconURL points at the OpenWeatherMap artwork for an icon token.
func IconURL(icon string) string {
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", icon)
}

const (
	bgClearDay   = "bg-gradient-to-br from-blue-400 to-blue-600"
	bgClearNight = "bg-gradient-to-br from-gray-900 to-blue-900"
)

// Background picks the dashboard gradient for a severity id.
func Background(severityID int, daytime bool) string {
	pick := func(day, night string) string {
		if daytime {
			return day
		}
		return night
	}

	switch {
	case severityID == 800:
		return pick(bgClearDay, bgClearNight)
	case severityID >= 801 && severityID <= 802:
		return pick("bg-gradient-to-br from-blue-300 to-blue-500", "bg-gradient-to-br from-gray-800 to-blue-800")
	case severityID >= 803 && severityID <= 804:
		return pick("bg-gradient-to-br from-blue-200 to-gray-400", "bg-gradient-to-br from-gray-700 to-gray-900")
	case (severityID >= 300 && severityID <= 321) || (severityID >= 500 && severityID <= 531):
		return pick("bg-gradient-to-br from-gray-400 to-blue-600", "bg-gradient-to-br from-gray-800 to-blue-900")
	case severityID >= 200 && severityID <= 232:
		return "bg-gradient-to-br from-gray-700 to-gray-900"
	case severityID >= 600 && severityID <= 622:
		return pick("bg-gradient-to-br from-blue-100 to-gray-300", "bg-gradient-to-br from-gray-600 to-blue-800")
	case severityID >= 701 && severityID <= 781:
		return pick("bg-gradient-to-br from-gray-300 to-gray-500", "bg-gradient-to-br from-gray-700 to-gray-900")
	default:
		return pick(bgClearDay, bgClearNight)
	}
}
