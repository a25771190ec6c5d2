package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/city"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/meal"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/provider"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/metrics"
)

const (
	maxProviderOffers   = 5
	fallbackOfferPrice  = 500.0
	fallbackDepartureAt = 10 * time.Hour
	fallbackArrivalAt   = 14 * time.Hour
)

// 検索結果の取得元
const (
	searchSourceStored   = "stored"
	searchSourceProvider = "provider"
	searchSourceFallback = "fallback"
	searchSourceNone     = "none"
)

type FlightService struct {
	flightRepo flight.Repository
	cityRepo   city.Repository
	mealRepo   meal.Repository
	seats      *SeatService
	provider   FlightProvider
	occupancy  config.OccupancyConfig
	newRand    func() *rand.Rand
}

func NewFlightService(fr flight.Repository, cr city.Repository, mr meal.Repository, seats *SeatService, p FlightProvider, occupancy config.OccupancyConfig) *FlightService {
	return &FlightService{
		flightRepo: fr, cityRepo: cr, mealRepo: mr, seats: seats,
		provider: p, occupancy: occupancy, newRand: newLocalRand,
	}
}

type SearchInput struct {
	Origin      string
	Destination string
	Date        time.Time
	Adults      int
}

// Search は路線と出発日でフライトを検索する
// 保存済みのフライトがなければプロバイダーの候補、それもなければ既定のフライトを作成する
// 入力エラー以外で失敗することはなく、想定外のエラーは空の結果になる
func (s *FlightService) Search(ctx context.Context, input SearchInput) ([]*flight.Flight, error) {
	origin := strings.ToUpper(strings.TrimSpace(input.Origin))
	destination := strings.ToUpper(strings.TrimSpace(input.Destination))
	if origin == "" || destination == "" || input.Date.IsZero() {
		return nil, flight.ErrRouteRequired
	}
	if origin == destination {
		return nil, flight.ErrSameOriginDestination
	}

	flights, source, err := s.search(ctx, origin, destination, input)
	if err != nil {
		logger.FromContext(ctx).Error("フライト検索に失敗しました",
			zap.String("origin", origin), zap.String("destination", destination), zap.Error(err))
		metrics.RecordFlightSearch(searchSourceNone)
		return []*flight.Flight{}, nil
	}
	metrics.RecordFlightSearch(source)
	return flights, nil
}

func (s *FlightService) search(ctx context.Context, origin, destination string, input SearchInput) ([]*flight.Flight, string, error) {
	from, err := s.cityRepo.GetByCode(ctx, origin)
	if err != nil {
		if errors.Is(err, city.ErrCityNotFound) {
			return []*flight.Flight{}, searchSourceNone, nil
		}
		return nil, "", err
	}
	to, err := s.cityRepo.GetByCode(ctx, destination)
	if err != nil {
		if errors.Is(err, city.ErrCityNotFound) {
			return []*flight.Flight{}, searchSourceNone, nil
		}
		return nil, "", err
	}

	existing, err := s.flightRepo.SearchByRoute(ctx, origin, destination, input.Date)
	if err != nil {
		return nil, "", err
	}
	if len(existing) > 0 {
		for _, f := range existing {
			s.prepareSeats(ctx, f)
		}
		return existing, searchSourceStored, nil
	}

	source := searchSourceProvider
	candidates := s.fromProvider(ctx, from, to, input)
	if len(candidates) == 0 {
		source = searchSourceFallback
		candidates = []*flight.Flight{s.fallbackFlight(from, to, input.Date)}
	}

	created := make([]*flight.Flight, 0, len(candidates))
	for _, f := range candidates {
		if err := s.createFlight(ctx, f); err != nil {
			return nil, "", err
		}
		created = append(created, f)
	}
	return created, source, nil
}

// fromProvider はプロバイダーの候補をフライトに変換する。失敗時は空を返す
func (s *FlightService) fromProvider(ctx context.Context, from, to *city.City, input SearchInput) []*flight.Flight {
	if s.provider == nil {
		return nil
	}
	offers, err := s.provider.SearchOffers(ctx, provider.Criteria{
		Origin: from.Code, Destination: to.Code, Date: input.Date,
		Adults: input.Adults, Max: maxProviderOffers,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("プロバイダー検索に失敗したため既定のフライトを使用します", zap.Error(err))
		return nil
	}

	if len(offers) > maxProviderOffers {
		offers = offers[:maxProviderOffers]
	}
	seen := make(map[string]bool, len(offers))
	flights := make([]*flight.Flight, 0, len(offers))
	for _, o := range offers {
		if seen[o.Key()] {
			continue
		}
		seen[o.Key()] = true

		economy := pricing.Round2(o.Price(fallbackOfferPrice))
		business := pricing.Round2(economy * pricing.BusinessMultiplier)
		f := flight.NewFlight(o.FlightNumber(), from.Code, to.Code, o.DepartureAt, o.ArrivalAt,
			pricing.SeasonalPrice(economy, from.Name, to.Name, input.Date),
			pricing.SeasonalPrice(business, from.Name, to.Name, input.Date))
		f.NumberOfStops = o.NumberOfStops
		if err := f.Validate(); err != nil {
			logger.FromContext(ctx).Debug("不正な候補を除外しました", zap.String("flight_number", f.FlightNumber), zap.Error(err))
			continue
		}
		flights = append(flights, f)
	}
	return flights
}

// fallbackFlight は距離から価格を決めた既定のフライトを作る（10:00発 14:00着 UTC）
func (s *FlightService) fallbackFlight(from, to *city.City, date time.Time) *flight.Flight {
	rng := s.newRand()
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	departure := day.Add(fallbackDepartureAt)

	base := pricing.BasePriceForDistance(pricing.Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude))
	economy := pricing.SeasonalPrice(base, from.Name, to.Name, departure)
	business := pricing.SeasonalPrice(pricing.Round2(base*pricing.BusinessMultiplier), from.Name, to.Name, departure)

	return flight.NewFlight(fmt.Sprintf("FL%d", 1000+rng.Intn(9000)), from.Code, to.Code,
		departure, day.Add(fallbackArrivalAt), economy, business)
}

func (s *FlightService) createFlight(ctx context.Context, f *flight.Flight) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := s.flightRepo.Create(ctx, f); err != nil {
		return err
	}
	s.prepareSeats(ctx, f)
	return nil
}

// prepareSeats は座席表を用意し、座席表を新たに作成したときだけ占有状況を模擬する
// 予約が全てキャンセルされた既存フライトを再び埋めることはしない
func (s *FlightService) prepareSeats(ctx context.Context, f *flight.Flight) {
	log := logger.FromContext(ctx).With(zap.String("flight_id", f.ID))

	generated, err := s.seats.GenerateSeatMap(ctx, f.ID)
	if err != nil {
		log.Warn("座席表の作成に失敗しました", zap.Error(err))
		return
	}
	if generated == 0 || !s.occupancy.Enabled {
		return
	}
	rng := s.newRand()
	economy := randBetween(rng, s.occupancy.EconomyMin, s.occupancy.EconomyMax)
	business := randBetween(rng, s.occupancy.BusinessMin, s.occupancy.BusinessMax)
	if n, err := s.seats.SimulateOccupancy(ctx, f.ID, economy, business); err != nil {
		log.Warn("占有シミュレーションに失敗しました", zap.Error(err))
	} else if n > 0 {
		log.Debug("占有シミュレーションを実行しました", zap.Int("occupied", n))
	}
}

// randBetween は [min, max) の整数を返す
func randBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo)
}

func (s *FlightService) GetFlight(ctx context.Context, id string) (*flight.Flight, error) {
	return s.flightRepo.GetByID(ctx, id)
}

func (s *FlightService) ListCities(ctx context.Context) ([]*city.City, error) {
	return s.cityRepo.ListActive(ctx)
}

func (s *FlightService) ListMeals(ctx context.Context) ([]*meal.Meal, error) {
	return s.mealRepo.ListAvailable(ctx)
}
