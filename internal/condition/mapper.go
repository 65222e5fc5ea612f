package condition

import (
	"strings"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// Mapper classifies a provider condition into the canonical scheme. Every
// implementation is total: input it does not recognise degrades to clear sky.
type Mapper interface {
	Classify(in models.ConditionInput) models.Condition
}

const (
	clearSeverity = 800
	clearIcon     = "01"
	clearLabel    = "Clear"
)

// Clear is the clear-sky condition used for unknown input and fallback records.
func Clear(daytime bool) models.Condition {
	return models.Condition{
		SeverityID: clearSeverity,
		Label:      clearLabel,
		Icon:       clearIcon + dayNight(daytime),
	}
}

func dayNight(daytime bool) string {
	if daytime {
		return "d"
	}
	return "n"
}

type codeRange struct {
	lo, hi   int
	severity int
	label    string
	icon     string
}

// weatherAPICodes maps WeatherAPI.com condition codes. Rows are disjoint and
// listed most specific first.
var weatherAPICodes = []codeRange{
	{1273, 1282, 200, "Thunderstorm", "11"},
	{1000, 1003, 800, "Clear", "01"},
	{1004, 1006, 803, "Clouds", "02"},
	{1007, 1009, 803, "Clouds", "04"},
	{1030, 1039, 701, "Mist", "50"},
	{1063, 1069, 500, "Rain", "09"},
	{1114, 1117, 601, "Snow", "13"},
	{1135, 1147, 741, "Fog", "50"},
	{1150, 1201, 501, "Rain", "10"},
	{1204, 1237, 600, "Snow", "13"},
	{1240, 1246, 501, "Rain", "09"},
	{1249, 1264, 600, "Snow", "13"},
}

// NumericCodeStrategy classifies structured-API condition codes by range.
type NumericCodeStrategy struct{}

func (NumericCodeStrategy) Classify(in models.ConditionInput) models.Condition {
	for _, r := range weatherAPICodes {
		if in.Code >= r.lo && in.Code <= r.hi {
			return models.Condition{
				SeverityID: r.severity,
				Label:      r.label,
				Icon:       r.icon + dayNight(in.IsDaytime),
			}
		}
	}
	return Clear(in.IsDaytime)
}

type keywordRule struct {
	all      []string
	any      []string
	severity int
	label    string
	icon     string
}

func (r keywordRule) matches(text string) bool {
	for _, k := range r.all {
		if !strings.Contains(text, k) {
			return false
		}
	}
	if len(r.any) == 0 {
		return true
	}
	for _, k := range r.any {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// keywordRules is evaluated top to bottom; the first match wins. "light rain"
// must stay above plain "rain".
var keywordRules = []keywordRule{
	{any: []string{"thunder"}, severity: 200, label: "Thunderstorm", icon: "11"},
	{all: []string{"rain", "light"}, severity: 500, label: "Rain", icon: "10"},
	{any: []string{"rain"}, severity: 501, label: "Rain", icon: "09"},
	// drizzle has no rain keyword; without this row it would classify as clear
	{any: []string{"drizzle"}, severity: 300, label: "Drizzle", icon: "09"},
	{any: []string{"snow"}, severity: 600, label: "Snow", icon: "13"},
	{any: []string{"mist", "fog"}, severity: 701, label: "Mist", icon: "50"},
	{any: []string{"clear"}, severity: 800, label: "Clear", icon: "01"},
	{all: []string{"cloud", "few"}, severity: 801, label: "Clouds", icon: "02"},
	{all: []string{"cloud", "scattered"}, severity: 801, label: "Clouds", icon: "03"},
	{any: []string{"cloud", "overcast"}, severity: 801, label: "Clouds", icon: "04"},
}

// KeywordTextStrategy classifies free-text condition descriptions.
type KeywordTextStrategy struct{}

func (KeywordTextStrategy) Classify(in models.ConditionInput) models.Condition {
	text := strings.ToLower(in.Text)
	if text == "" {
		return Clear(in.IsDaytime)
	}
	for _, r := range keywordRules {
		if r.matches(text) {
			return models.Condition{
				SeverityID: r.severity,
				Label:      r.label,
				Icon:       r.icon + dayNight(in.IsDaytime),
			}
		}
	}
	return Clear(in.IsDaytime)
}

// CloudCoverFromText estimates cloud cover in percent from a description.
func CloudCoverFromText(description string) float64 {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "clear"):
		return 0
	case strings.Contains(d, "few"):
		return 20
	case strings.Contains(d, "scattered"):
		return 40
	case strings.Contains(d, "broken"), strings.Contains(d, "partly"):
		return 60
	case strings.Contains(d, "overcast"), strings.Contains(d, "cloudy"):
		return 90
	default:
		return 0
	}
}

// ForSource returns the strategy matching the collaborator that produced a payload.
func ForSource(source models.Source) Mapper {
	switch source {
	case models.SourceOpenMeteo:
		return KeywordTextStrategy{}
	default:
		return NumericCodeStrategy{}
	}
}
