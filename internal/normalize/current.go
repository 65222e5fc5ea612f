package normalize

import (
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/condition"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

// NormalizeCurrent builds a CurrentConditions snapshot in the requested unit
// system. It always returns a usable record; when raw is nil or unusable the
// result is a fallback with IsFallback set.
func (n *Normalizer) NormalizeCurrent(raw *models.ProviderPayload, units models.UnitSystem, loc models.Location) (result models.CurrentConditions) {
	units = normalizeUnits(units)

	if raw == nil || raw.Current == nil {
		n.logger.Warn("No current conditions in payload, using fallback",
			zap.String("location", loc.Query()))
		return n.FallbackCurrent(units, loc)
	}

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Recovered while normalizing current conditions",
				zap.String("location", loc.Query()),
				zap.String("panic", fmt.Sprint(r)))
			result = n.FallbackCurrent(units, loc)
		}
	}()

	now := n.now()
	cur := raw.Current
	zone, zoneKnown := n.locationZone(raw.Location)

	result.Name, result.Country = identity(raw.Location, loc)
	result.Latitude, result.Longitude = loc.Latitude, loc.Longitude
	if raw.Location != nil {
		if usable(raw.Location.Lat) && usable(raw.Location.Lon) {
			result.Latitude, result.Longitude = *raw.Location.Lat, *raw.Location.Lon
		}
	}

	result.ObservedAt = now.Unix()
	if cur.LastUpdatedEpoch != nil {
		result.ObservedAt = *cur.LastUpdatedEpoch
	}
	if zoneKnown {
		_, result.UTCOffset = time.Unix(result.ObservedAt, 0).In(zone).Zone()
	}

	temp, ok := selectTemperature(cur.TempC, cur.TempF, units)
	if !ok {
		temp = defaultTemperature(units)
	}
	feels, ok := selectTemperature(cur.FeelsLikeC, cur.FeelsLikeF, units)
	if !ok {
		feels = temp
	}
	minT, maxT := temp-minMaxSpread(units), temp+minMaxSpread(units)
	if day0 := firstDay(raw); day0 != nil {
		if v, ok := selectTemperature(day0.Day.MinTempC, day0.Day.MinTempF, units); ok {
			minT = v
		}
		if v, ok := selectTemperature(day0.Day.MaxTempC, day0.Day.MaxTempF, units); ok {
			maxT = v
		}
	}
	result.Temperature = models.Temperature{
		Current:   temp,
		FeelsLike: feels,
		Min:       minT,
		Max:       maxT,
		Units:     units,
	}

	speed, ok := selectSpeed(cur.WindKph, cur.WindMph, units)
	if !ok {
		speed = defaultWindSpeed
	}
	result.Wind = models.Wind{Speed: speed, Degrees: valueOr(cur.WindDegree, 0)}
	if gust, ok := selectSpeed(cur.GustKph, cur.GustMph, units); ok {
		result.Wind.Gust = &gust
	}

	result.Humidity = valueOr(cur.Humidity, defaultHumidity)
	result.Pressure = valueOr(cur.PressureMb, defaultPressure)
	result.Visibility = defaultVisibility
	if usable(cur.VisKm) {
		result.Visibility = *cur.VisKm * 1000
	}

	result.Sunrise, result.Sunset = n.sunTimes(raw, zone, now)

	daytime := result.ObservedAt >= result.Sunrise && result.ObservedAt <= result.Sunset
	if cur.IsDay != nil {
		daytime = *cur.IsDay == 1
	}
	result.Condition = n.classify(raw.Source, cur.Condition, daytime)
	result.Description = cur.Condition.Text
	if result.Description == "" {
		result.Description = result.Condition.Label
	}
	result.CloudCover = valueOr(cur.Cloud, textCloudCover(raw.Source, cur.Condition.Text))

	result.Extras = currentExtras(raw)
	return result
}

// FallbackCurrent is the record shown when no provider data is usable.
func (n *Normalizer) FallbackCurrent(units models.UnitSystem, loc models.Location) models.CurrentConditions {
	units = normalizeUnits(units)
	now := n.now().Unix()
	temp := defaultTemperature(units)

	name := loc.DisplayName
	if name == "" {
		name = unknownLocation
	}
	return models.CurrentConditions{
		Name:       name,
		Country:    loc.CountryCode,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		ObservedAt: now,
		Temperature: models.Temperature{
			Current:   temp,
			FeelsLike: temp,
			Min:       temp - minMaxSpread(units),
			Max:       temp + minMaxSpread(units),
			Units:     units,
		},
		Humidity:    defaultHumidity,
		Pressure:    defaultPressure,
		Wind:        models.Wind{Speed: defaultWindSpeed},
		CloudCover:  defaultCloudCover,
		Visibility:  defaultVisibility,
		Sunrise:     now - 3600,
		Sunset:      now + 3600,
		Condition:   condition.Clear(true),
		Description: "clear sky",
		IsFallback:  true,
	}
}

func identity(pl *models.PayloadLocation, loc models.Location) (string, string) {
	name, country := loc.DisplayName, loc.CountryCode
	if pl != nil {
		if pl.Name != "" {
			name = pl.Name
		}
		if pl.Country != "" {
			country = pl.Country
		}
	}
	if name == "" {
		name = unknownLocation
	}
	return name, country
}

// textCloudCover estimates cloud cover for sources that only describe the
// sky in words.
func textCloudCover(source models.Source, text string) float64 {
	if source == models.SourceOpenMeteo {
		return condition.CloudCoverFromText(text)
	}
	return defaultCloudCover
}

func currentExtras(raw *models.ProviderPayload) *models.CurrentExtras {
	cur := raw.Current
	extras := &models.CurrentExtras{
		AirQuality:    airQuality(cur.AirQuality),
		UVIndex:       optional(cur.UV),
		Precipitation: optional(cur.PrecipMm),
	}
	if raw.Alerts != nil {
		for _, a := range raw.Alerts.Alert {
			extras.Alerts = append(extras.Alerts, models.Alert{
				Title:       a.Headline,
				Description: a.Desc,
				Severity:    a.Severity,
				Effective:   a.Effective,
				Expires:     a.Expires,
			})
		}
	}
	if raw.Location != nil {
		extras.Region = raw.Location.Region
		extras.LocalTime = raw.Location.Localtime
	}

	if extras.AirQuality == nil && extras.UVIndex == nil && extras.Precipitation == nil &&
		len(extras.Alerts) == 0 && extras.Region == "" && extras.LocalTime == "" {
		return nil
	}
	return extras
}
