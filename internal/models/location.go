package models

import (
	"fmt"
	"strconv"
)

// DefaultLocation is used when neither geolocation nor search yields a place.
var DefaultLocation = Location{Latitude: 40.7128, Longitude: -74.0060}

type Location struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	DisplayName string  `json:"name,omitempty"`
	CountryCode string  `json:"country,omitempty"`
}

// Query returns the provider query string: the place name when known,
// otherwise "lat,lon".
func (l Location) Query() string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	return l.Coordinates()
}

func (l Location) Coordinates() string {
	return strconv.FormatFloat(l.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', -1, 64)
}

// CoordinateLabel is the name given to a place reverse geocoding could not resolve.
func CoordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("Location (%.2f, %.2f)", lat, lon)
}
