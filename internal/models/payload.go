package models

// Source identifies which collaborator produced a ProviderPayload. The
// normalizer picks its condition strategy from it.
type Source string

const (
	SourceWeatherAPI Source = "weatherapi"
	SourceOpenMeteo  Source = "open-meteo"
)

// ProviderPayload is an upstream record in the WeatherAPI.com forecast.json
// shape. Numeric fields are pointers so an omitted field can be told apart
// from a zero reading. Other providers adapt their responses into it.
type ProviderPayload struct {
	Source   Source           `json:"-"`
	Location *PayloadLocation `json:"location"`
	Current  *PayloadCurrent  `json:"current"`
	Forecast *PayloadForecast `json:"forecast"`
	Alerts   *PayloadAlerts   `json:"alerts"`
}

type PayloadLocation struct {
	Name           string   `json:"name"`
	Region         string   `json:"region"`
	Country        string   `json:"country"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	TzID           string   `json:"tz_id"`
	LocaltimeEpoch *int64   `json:"localtime_epoch"`
	Localtime      string   `json:"localtime"`
}

type PayloadCondition struct {
	Text string `json:"text"`
	Code *int   `json:"code"`
}

type PayloadAirQuality struct {
	CO           *float64 `json:"co"`
	NO2          *float64 `json:"no2"`
	O3           *float64 `json:"o3"`
	SO2          *float64 `json:"so2"`
	PM25         *float64 `json:"pm2_5"`
	PM10         *float64 `json:"pm10"`
	USEPAIndex   *int     `json:"us-epa-index"`
	GBDefraIndex *int     `json:"gb-defra-index"`
}

type PayloadCurrent struct {
	LastUpdatedEpoch *int64             `json:"last_updated_epoch"`
	TempC            *float64           `json:"temp_c"`
	TempF            *float64           `json:"temp_f"`
	FeelsLikeC       *float64           `json:"feelslike_c"`
	FeelsLikeF       *float64           `json:"feelslike_f"`
	IsDay            *int               `json:"is_day"`
	Condition        PayloadCondition   `json:"condition"`
	WindKph          *float64           `json:"wind_kph"`
	WindMph          *float64           `json:"wind_mph"`
	WindDegree       *float64           `json:"wind_degree"`
	GustKph          *float64           `json:"gust_kph"`
	GustMph          *float64           `json:"gust_mph"`
	PressureMb       *float64           `json:"pressure_mb"`
	PrecipMm         *float64           `json:"precip_mm"`
	Humidity         *float64           `json:"humidity"`
	Cloud            *float64           `json:"cloud"`
	VisKm            *float64           `json:"vis_km"`
	UV               *float64           `json:"uv"`
	AirQuality       *PayloadAirQuality `json:"air_quality"`
}

type PayloadForecast struct {
	ForecastDay []PayloadForecastDay `json:"forecastday"`
}

type PayloadForecastDay struct {
	Date      string        `json:"date"`
	DateEpoch *int64        `json:"date_epoch"`
	Day       PayloadDay    `json:"day"`
	Astro     *PayloadAstro `json:"astro"`
	Hour      []PayloadHour `json:"hour"`
}

type PayloadDay struct {
	MaxTempC          *float64         `json:"maxtemp_c"`
	MaxTempF          *float64         `json:"maxtemp_f"`
	MinTempC          *float64         `json:"mintemp_c"`
	MinTempF          *float64         `json:"mintemp_f"`
	MaxWindKph        *float64         `json:"maxwind_kph"`
	MaxWindMph        *float64         `json:"maxwind_mph"`
	AvgHumidity       *float64         `json:"avghumidity"`
	TotalPrecipMm     *float64         `json:"totalprecip_mm"`
	DailyChanceOfRain *float64         `json:"daily_chance_of_rain"`
	DailyChanceOfSnow *float64         `json:"daily_chance_of_snow"`
	UV                *float64         `json:"uv"`
	Condition         PayloadCondition `json:"condition"`
}

type PayloadAstro struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

type PayloadHour struct {
	TimeEpoch    *int64             `json:"time_epoch"`
	Time         string             `json:"time"`
	TempC        *float64           `json:"temp_c"`
	TempF        *float64           `json:"temp_f"`
	FeelsLikeC   *float64           `json:"feelslike_c"`
	FeelsLikeF   *float64           `json:"feelslike_f"`
	IsDay        *int               `json:"is_day"`
	Condition    PayloadCondition   `json:"condition"`
	WindKph      *float64           `json:"wind_kph"`
	WindMph      *float64           `json:"wind_mph"`
	WindDegree   *float64           `json:"wind_degree"`
	GustKph      *float64           `json:"gust_kph"`
	GustMph      *float64           `json:"gust_mph"`
	PressureMb   *float64           `json:"pressure_mb"`
	PrecipMm     *float64           `json:"precip_mm"`
	Humidity     *float64           `json:"humidity"`
	Cloud        *float64           `json:"cloud"`
	VisKm        *float64           `json:"vis_km"`
	UV           *float64           `json:"uv"`
	ChanceOfRain *float64           `json:"chance_of_rain"`
	ChanceOfSnow *float64           `json:"chance_of_snow"`
	AirQuality   *PayloadAirQuality `json:"air_quality"`
}

type PayloadAlerts struct {
	Alert []PayloadAlert `json:"alert"`
}

type PayloadAlert struct {
	Headline  string `json:"headline"`
	Severity  string `json:"severity"`
	Desc      string `json:"desc"`
	Effective string `json:"effective"`
	Expires   string `json:"expires"`
}

// Float returns a pointer to v. Providers use it when adapting responses.
func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func Int64(v int64) *int64 { return &v }
