package city

import "errors"

var ErrCityNotFound = errors.New("都市が見つかりません")

// City は空港を持つ都市を表す
type City struct {
	Code        string // IATA空港コード
	Name        string
	CountryCode string
	Latitude    float64
	Longitude   float64
	TimeZone    string
	IsActive    bool
}
