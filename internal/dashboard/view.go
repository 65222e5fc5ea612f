package dashboard

import (
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/format"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

type CurrentView struct {
	Name        string                `json:"name"`
	Country     string                `json:"country"`
	UpdatedAt   string                `json:"updated_at"`
	Temperature string                `json:"temperature"`
	FeelsLike   string                `json:"feels_like"`
	High        string                `json:"high"`
	Low         string                `json:"low"`
	Description string                `json:"description"`
	Icon        string                `json:"icon"`
	IconURL     string                `json:"icon_url"`
	Humidity    string                `json:"humidity"`
	Wind        string                `json:"wind"`
	Pressure    string                `json:"pressure"`
	Visibility  string                `json:"visibility"`
	Sunrise     string                `json:"sunrise"`
	Sunset      string                `json:"sunset"`
	Daytime     bool                  `json:"daytime"`
	Fallback    bool                  `json:"fallback"`
	Extras      *models.CurrentExtras `json:"extras,omitempty"`
}

type DayView struct {
	Day         string    `json:"day"`
	Date        time.Time `json:"date"`
	Temperature string    `json:"temperature"`
	High        string    `json:"high"`
	Low         string    `json:"low"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	IconURL     string    `json:"icon_url"`
	Humidity    string    `json:"humidity"`
	Wind        string    `json:"wind"`
}

// View is the rendered dashboard.
type View struct {
	Location   *models.Location  `json:"location"`
	Units      models.UnitSystem `json:"units"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
	Background string            `json:"background"`
	Current    *CurrentView      `json:"current,omitempty"`
	Forecast   []DayView         `json:"forecast"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// BuildView renders a snapshot. Weekday names use zone, the viewer's zone.
func BuildView(st State, zone *time.Location) View {
	view := View{
		Location:   st.Location,
		Units:      st.Units,
		Loading:    st.Loading,
		Error:      st.Error,
		Background: format.Background(800, true),
		Forecast:   make([]DayView, 0, len(st.Daily)),
		UpdatedAt:  st.UpdatedAt,
	}

	if cur := st.Current; cur != nil {
		units := cur.Temperature.Units
		daytime := format.IsDaytime(cur.ObservedAt, cur.Sunrise, cur.Sunset)
		view.Background = format.Background(cur.Condition.SeverityID, daytime)
		view.Current = &CurrentView{
			Name:        cur.Name,
			Country:     cur.Country,
			UpdatedAt:   format.Clock(cur.ObservedAt, cur.UTCOffset),
			Temperature: format.Temperature(cur.Temperature.Current, units),
			FeelsLike:   format.Temperature(cur.Temperature.FeelsLike, units),
			High:        format.Temperature(cur.Temperature.Max, units),
			Low:         format.Temperature(cur.Temperature.Min, units),
			Description: cur.Description,
			Icon:        cur.Condition.Icon,
			IconURL:     format.IconURL(cur.Condition.Icon),
			Humidity:    fmt.Sprintf("%.0f%%", cur.Humidity),
			Wind:        format.WindSpeed(cur.Wind.Speed, units),
			Pressure:    fmt.Sprintf("%.0f hPa", cur.Pressure),
			Visibility:  fmt.Sprintf("%.1f km", cur.Visibility/1000),
			Sunrise:     format.Clock(cur.Sunrise, cur.UTCOffset),
			Sunset:      format.Clock(cur.Sunset, cur.UTCOffset),
			Daytime:     daytime,
			Fallback:    cur.IsFallback,
			Extras:      cur.Extras,
		}
	}

	for _, d := range st.Daily {
		s := d.Sample
		units := s.Temperature.Units
		view.Forecast = append(view.Forecast, DayView{
			Day:         format.Day(s.Timestamp, zone),
			Date:        d.Date,
			Temperature: format.Temperature(s.Temperature.Current, units),
			High:        format.Temperature(s.Temperature.Max, units),
			Low:         format.Temperature(s.Temperature.Min, units),
			Description: s.Description,
			Icon:        s.Condition.Icon,
			IconURL:     format.IconURL(s.Condition.Icon),
			Humidity:    fmt.Sprintf("%.0f%%", s.Humidity),
			Wind:        format.WindSpeed(s.Wind.Speed, units),
		})
	}

	return view
}
