// Package normalize turns provider payloads into the canonical weather model.
//
// Normalization never fails outwardly. Absent or malformed payloads produce a
// fully populated fallback record built from the defaults below plus whatever
// location identity the caller passed in.
package normalize

import (
	"math"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/condition"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const (
	defaultTempC      = 20.0
	defaultTempF      = 68.0
	defaultHumidity   = 50.0
	defaultPressure   = 1013.0
	defaultWindSpeed  = 5.0
	defaultVisibility = 10000.0
	defaultCloudCover = 0.0

	unknownLocation = "Unknown Location"

	// KphToMetersPerSecond is the exact factor the dashboard has always used.
	KphToMetersPerSecond = 0.277778
	KphToMph             = 0.621371
	MphToMetersPerSecond = 0.44704
)

type Normalizer struct {
	zone   *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// New creates a Normalizer. zone is the viewer's time zone; it is used to
// synthesize 3-hourly samples and when a payload carries no usable tz_id.
func New(zone *time.Location, logger *zap.Logger) *Normalizer {
	if zone == nil {
		zone = time.Local
	}
	return &Normalizer{
		zone:   zone,
		now:    time.Now,
		logger: logger,
	}
}

func (n *Normalizer) classify(source models.Source, pc models.PayloadCondition, daytime bool) models.Condition {
	in := models.ConditionInput{Text: pc.Text, IsDaytime: daytime}
	if pc.Code != nil {
		in.Code = *pc.Code
	}
	return condition.ForSource(source).Classify(in)
}

// locationZone prefers the location's own IANA zone.
func (n *Normalizer) locationZone(loc *models.PayloadLocation) (*time.Location, bool) {
	if loc == nil || loc.TzID == "" {
		return n.zone, false
	}
	tz, err := time.LoadLocation(loc.TzID)
	if err != nil {
		n.logger.Debug("Unknown time zone in payload",
			zap.String("tz_id", loc.TzID),
			zap.Error(err))
		return n.zone, false
	}
	return tz, true
}

func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func valueOr(v *float64, def float64) float64 {
	if usable(v) {
		return *v
	}
	return def
}

// selectTemperature returns the reading in the requested system, deriving it
// from the other system when only that one is present.
func selectTemperature(c, f *float64, units models.UnitSystem) (float64, bool) {
	if units == models.Imperial {
		if usable(f) {
			return *f, true
		}
		if usable(c) {
			return CelsiusToFahrenheit(*c), true
		}
		return 0, false
	}
	if usable(c) {
		return *c, true
	}
	if usable(f) {
		return FahrenheitToCelsius(*f), true
	}
	return 0, false
}

// selectSpeed returns m/s for Metric and mph for Imperial.
func selectSpeed(kph, mph *float64, units models.UnitSystem) (float64, bool) {
	if units == models.Imperial {
		if usable(mph) {
			return *mph, true
		}
		if usable(kph) {
			return *kph * KphToMph, true
		}
		return 0, false
	}
	if usable(kph) {
		return *kph * KphToMetersPerSecond, true
	}
	if usable(mph) {
		return *mph * MphToMetersPerSecond, true
	}
	return 0, false
}

func defaultTemperature(units models.UnitSystem) float64 {
	if units == models.Imperial {
		return defaultTempF
	}
	return defaultTempC
}

// minMaxSpread is how far min/max sit from the current temperature when
// upstream has no daily range.
func minMaxSpread(units models.UnitSystem) float64 {
	if units == models.Imperial {
		return 5
	}
	return 2
}

func percentToProbability(v *float64) float64 {
	if !usable(v) {
		return 0
	}
	return *v / 100
}

func airQuality(aq *models.PayloadAirQuality) *models.AirQuality {
	if aq == nil {
		return nil
	}
	out := &models.AirQuality{
		CO:   valueOr(aq.CO, 0),
		NO2:  valueOr(aq.NO2, 0),
		O3:   valueOr(aq.O3, 0),
		SO2:  valueOr(aq.SO2, 0),
		PM25: valueOr(aq.PM25, 0),
		PM10: valueOr(aq.PM10, 0),
	}
	if aq.USEPAIndex != nil {
		out.USEPAIndex = *aq.USEPAIndex
	}
	if aq.GBDefraIndex != nil {
		out.GBDefraIndex = *aq.GBDefraIndex
	}
	return out
}

func optional(v *float64) *float64 {
	if !usable(v) {
		return nil
	}
	c := *v
	return &c
}

func normalizeUnits(units models.UnitSystem) models.UnitSystem {
	if units == models.Imperial {
		return models.Imperial
	}
	return models.Metric
}
