package seat

import "github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"

// 座席配置の定義
// ビジネスは2-2配列（B/E列なし）、エコノミーは3-3配列
var (
	BusinessLetters = []string{"A", "C", "D", "F"}
	EconomyLetters  = []string{"A", "B", "C", "D", "E", "F"}
)

const (
	BusinessFirstRow = 1
	BusinessLastRow  = 3
	EconomyFirstRow  = 4
	EconomyLastRow   = 25
)

// BusinessSeatCount と EconomySeatCount は配置から決まる座席数
var (
	BusinessSeatCount = (BusinessLastRow - BusinessFirstRow + 1) * len(BusinessLetters)
	EconomySeatCount  = (EconomyLastRow - EconomyFirstRow + 1) * len(EconomyLetters)
)

// GenerateLayout はフライトの座席表を行・列順で生成する
func GenerateLayout(flightID string) []*Seat {
	seats := make([]*Seat, 0, BusinessSeatCount+EconomySeatCount)
	for row := BusinessFirstRow; row <= BusinessLastRow; row++ {
		for _, l := range BusinessLetters {
			seats = append(seats, NewSeat(flightID, row, l, flight.ClassBusiness))
		}
	}
	for row := EconomyFirstRow; row <= EconomyLastRow; row++ {
		for _, l := range EconomyLetters {
			seats = append(seats, NewSeat(flightID, row, l, flight.ClassEconomy))
		}
	}
	return seats
}
