// Package pricing はフライト運賃の計算を行う純粋関数を提供する
package pricing

import (
	"math"
	"strings"
	"time"
)

const (
	// SeasonalMultiplier は繁忙期の割増率
	SeasonalMultiplier = 1.30
	// BusinessMultiplier はエコノミー運賃に対するビジネス運賃の倍率
	BusinessMultiplier = 2.5

	earthRadiusKm = 6371.0
	baseFare      = 200.0
	farePerKm     = 0.10

	// セント換算時の浮動小数点誤差を吸収する桁
	centsPrecision = 1e6
)

var (
	christmasCities = []string{"London", "New York"}
	summerCities    = []string{"Tokyo", "Singapore", "Dubai"}
)

// Round2 は小数点以下2桁に四捨五入する
// 1.005 のように2進数で表せない値は、セント単位に直した後の誤差を先に丸めてから判定する
func Round2(v float64) float64 {
	cents := math.Round(v*100*centsPrecision) / centsPrecision
	return math.Round(cents) / 100
}

// SeasonalPrice は出発月と路線の都市名から季節調整済みの価格を返す
// 12月はロンドン・ニューヨーク発着、7-8月は東京・シンガポール・ドバイ発着が30%割増
func SeasonalPrice(base float64, origin, destination string, departure time.Time) float64 {
	switch departure.Month() {
	case time.December:
		if touchesAny(origin, destination, christmasCities) {
			return Round2(base * SeasonalMultiplier)
		}
	case time.July, time.August:
		if touchesAny(origin, destination, summerCities) {
			return Round2(base * SeasonalMultiplier)
		}
	}
	return Round2(base)
}

func touchesAny(origin, destination string, cities []string) bool {
	for _, c := range cities {
		if strings.Contains(origin, c) || strings.Contains(destination, c) {
			return true
		}
	}
	return false
}

// Haversine は2地点間の大圏距離(km)を返す
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BasePriceForDistance は距離から基本運賃を算出する（基本料金200 + 1kmあたり0.10）
func BasePriceForDistance(km float64) float64 {
	return Round2(km*farePerKm + baseFare)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
