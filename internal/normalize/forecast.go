package normalize

import (
	"fmt"
	"sort"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

// synthesizedHours are the local hours of the samples built for days that
// only carry a daily summary.
var synthesizedHours = []int{0, 3, 6, 9, 12, 15, 18, 21}

var fallbackDescriptions = []string{"Clear", "Clouds", "Rain", "Clear", "Clouds"}

const fallbackForecastDays = 5

// NormalizeForecast builds a ForecastSeries sorted by timestamp. Hourly data is
// used as-is; days with only a daily summary become eight 3-hourly samples in
// the viewer's zone. Unusable input yields the fallback series.
func (n *Normalizer) NormalizeForecast(raw *models.ProviderPayload, units models.UnitSystem, loc models.Location) (series models.ForecastSeries) {
	units = normalizeUnits(units)

	if raw == nil || raw.Forecast == nil || len(raw.Forecast.ForecastDay) == 0 {
		n.logger.Warn("No forecast days in payload, using fallback",
			zap.String("location", loc.Query()))
		return n.FallbackForecast(units, loc)
	}

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Recovered while normalizing forecast",
				zap.String("location", loc.Query()),
				zap.String("panic", fmt.Sprint(r)))
			series = n.FallbackForecast(units, loc)
		}
	}()

	zone, _ := n.locationZone(raw.Location)
	samples := make([]models.ForecastSample, 0, len(raw.Forecast.ForecastDay)*len(synthesizedHours))

	for _, day := range raw.Forecast.ForecastDay {
		if len(day.Hour) == 0 {
			samples = append(samples, n.synthesizeDay(raw.Source, day, units)...)
			continue
		}
		for _, h := range day.Hour {
			if s, ok := n.hourSample(raw.Source, day, h, zone, units); ok {
				samples = append(samples, s)
			}
		}
	}

	if len(samples) == 0 {
		n.logger.Warn("Forecast payload produced no samples, using fallback",
			zap.String("location", loc.Query()))
		return n.FallbackForecast(units, loc)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})

	name, country := identity(raw.Location, loc)
	sunrise, sunset := n.sunTimes(raw, zone, n.now())

	return models.ForecastSeries{
		Samples: samples,
		Origin: models.Origin{
			Name:    name,
			Country: country,
			Sunrise: sunrise,
			Sunset:  sunset,
		},
		Units: units,
	}
}

func (n *Normalizer) hourSample(source models.Source, day models.PayloadForecastDay, h models.PayloadHour, zone *time.Location, units models.UnitSystem) (models.ForecastSample, bool) {
	var ts int64
	switch {
	case h.TimeEpoch != nil:
		ts = *h.TimeEpoch
	case h.Time != "":
		t, err := time.ParseInLocation("2006-01-02 15:04", h.Time, zone)
		if err != nil {
			n.logger.Debug("Skipping hour with unparsable time",
				zap.String("time", h.Time),
				zap.Error(err))
			return models.ForecastSample{}, false
		}
		ts = t.Unix()
	default:
		return models.ForecastSample{}, false
	}

	temp, ok := selectTemperature(h.TempC, h.TempF, units)
	if !ok {
		temp = defaultTemperature(units)
	}
	feels, ok := selectTemperature(h.FeelsLikeC, h.FeelsLikeF, units)
	if !ok {
		feels = temp
	}
	minT, ok := selectTemperature(day.Day.MinTempC, day.Day.MinTempF, units)
	if !ok {
		minT = temp
	}
	maxT, ok := selectTemperature(day.Day.MaxTempC, day.Day.MaxTempF, units)
	if !ok {
		maxT = temp
	}

	speed, ok := selectSpeed(h.WindKph, h.WindMph, units)
	if !ok {
		speed = defaultWindSpeed
	}
	wind := models.Wind{Speed: speed, Degrees: valueOr(h.WindDegree, 0)}
	if gust, ok := selectSpeed(h.GustKph, h.GustMph, units); ok {
		wind.Gust = &gust
	}

	hour := time.Unix(ts, 0).In(n.zone).Hour()
	daytime := hour >= 6 && hour < 18
	if h.IsDay != nil {
		daytime = *h.IsDay == 1
	}
	cond := n.classify(source, h.Condition, daytime)
	description := h.Condition.Text
	if description == "" {
		description = cond.Label
	}

	visibility := defaultVisibility
	if usable(h.VisKm) {
		visibility = *h.VisKm * 1000
	}

	return models.ForecastSample{
		Timestamp: ts,
		Temperature: models.Temperature{
			Current:   temp,
			FeelsLike: feels,
			Min:       minT,
			Max:       maxT,
			Units:     units,
		},
		Humidity:    valueOr(h.Humidity, defaultHumidity),
		Pressure:    valueOr(h.PressureMb, defaultPressure),
		Wind:        wind,
		CloudCover:  valueOr(h.Cloud, textCloudCover(source, h.Condition.Text)),
		Visibility:  visibility,
		PoP:         percentToProbability(h.ChanceOfRain),
		Condition:   cond,
		Description: description,
		Extras: sampleExtras(models.SampleExtras{
			UVIndex:       optional(h.UV),
			Precipitation: optional(h.PrecipMm),
			ChanceOfRain:  optional(h.ChanceOfRain),
			ChanceOfSnow:  optional(h.ChanceOfSnow),
			AirQuality:    airQuality(h.AirQuality),
		}),
	}, true
}

// synthesizeDay expands a daily summary into eight samples: the minimum
// temperature before noon and the maximum from noon on.
func (n *Normalizer) synthesizeDay(source models.Source, day models.PayloadForecastDay, units models.UnitSystem) []models.ForecastSample {
	base, ok := n.dayStart(day)
	if !ok {
		n.logger.Debug("Skipping forecast day without a usable date",
			zap.String("date", day.Date))
		return nil
	}

	minT, minOK := selectTemperature(day.Day.MinTempC, day.Day.MinTempF, units)
	maxT, maxOK := selectTemperature(day.Day.MaxTempC, day.Day.MaxTempF, units)
	switch {
	case !minOK && !maxOK:
		minT, maxT = defaultTemperature(units), defaultTemperature(units)
	case !minOK:
		minT = maxT
	case !maxOK:
		maxT = minT
	}

	speed, ok := selectSpeed(day.Day.MaxWindKph, day.Day.MaxWindMph, units)
	if !ok {
		speed = defaultWindSpeed
	}

	description := day.Day.Condition.Text
	extras := sampleExtras(models.SampleExtras{
		UVIndex:       optional(day.Day.UV),
		Precipitation: optional(day.Day.TotalPrecipMm),
		ChanceOfRain:  optional(day.Day.DailyChanceOfRain),
		ChanceOfSnow:  optional(day.Day.DailyChanceOfSnow),
	})

	samples := make([]models.ForecastSample, 0, len(synthesizedHours))
	for _, hour := range synthesizedHours {
		temp := maxT
		if hour < 12 {
			temp = minT
		}
		cond := n.classify(source, day.Day.Condition, hour >= 6 && hour < 18)
		text := description
		if text == "" {
			text = cond.Label
		}

		samples = append(samples, models.ForecastSample{
			Timestamp: time.Date(base.Year(), base.Month(), base.Day(), hour, 0, 0, 0, n.zone).Unix(),
			Temperature: models.Temperature{
				Current:   temp,
				FeelsLike: temp,
				Min:       minT,
				Max:       maxT,
				Units:     units,
			},
			Humidity:    valueOr(day.Day.AvgHumidity, defaultHumidity),
			Pressure:    defaultPressure,
			Wind:        models.Wind{Speed: speed},
			CloudCover:  textCloudCover(source, description),
			Visibility:  defaultVisibility,
			PoP:         percentToProbability(day.Day.DailyChanceOfRain),
			Condition:   cond,
			Description: text,
			Extras:      extras,
		})
	}
	return samples
}

// dayStart resolves the calendar date of a forecast day in the viewer's zone.
// The date string wins over date_epoch, which is midnight UTC and can land on
// the previous day west of Greenwich.
func (n *Normalizer) dayStart(day models.PayloadForecastDay) (time.Time, bool) {
	if day.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", day.Date, n.zone); err == nil {
			return t, true
		}
	}
	if day.DateEpoch != nil {
		return time.Unix(*day.DateEpoch, 0).In(n.zone), true
	}
	return time.Time{}, false
}

func sampleExtras(e models.SampleExtras) *models.SampleExtras {
	if e.UVIndex == nil && e.Precipitation == nil && e.ChanceOfRain == nil &&
		e.ChanceOfSnow == nil && e.AirQuality == nil {
		return nil
	}
	return &e
}

// FallbackForecast is five days of eight 3-hourly samples starting today in
// the viewer's zone, cooling by one degree per day.
func (n *Normalizer) FallbackForecast(units models.UnitSystem, loc models.Location) models.ForecastSeries {
	units = normalizeUnits(units)
	now := n.now()
	today := now.In(n.zone)
	keyword := models.SourceOpenMeteo

	samples := make([]models.ForecastSample, 0, fallbackForecastDays*len(synthesizedHours))
	for i := 0; i < fallbackForecastDays; i++ {
		maxT, minT := 25.0-float64(i), 15.0-float64(i)
		if units == models.Imperial {
			maxT, minT = CelsiusToFahrenheit(maxT), CelsiusToFahrenheit(minT)
		}
		description := fallbackDescriptions[i%len(fallbackDescriptions)]

		for _, hour := range synthesizedHours {
			temp := maxT
			if hour < 12 {
				temp = minT
			}
			samples = append(samples, models.ForecastSample{
				Timestamp: time.Date(today.Year(), today.Month(), today.Day()+i, hour, 0, 0, 0, n.zone).Unix(),
				Temperature: models.Temperature{
					Current:   temp,
					FeelsLike: temp,
					Min:       minT,
					Max:       maxT,
					Units:     units,
				},
				Humidity:    defaultHumidity,
				Pressure:    defaultPressure,
				Wind:        models.Wind{Speed: defaultWindSpeed},
				CloudCover:  textCloudCover(keyword, description),
				Visibility:  defaultVisibility,
				Condition:   n.classify(keyword, models.PayloadCondition{Text: description}, hour >= 6 && hour < 18),
				Description: description,
			})
		}
	}

	name := loc.DisplayName
	if name == "" {
		name = unknownLocation
	}
	return models.ForecastSeries{
		Samples: samples,
		Origin: models.Origin{
			Name:    name,
			Country: loc.CountryCode,
			Sunrise: now.Unix() - 3600,
			Sunset:  now.Unix() + 3600,
		},
		Units:      units,
		IsFallback: true,
	}
}
