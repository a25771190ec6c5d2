package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
)

// ErrNotConfigured はプロバイダーのURLが設定されていない場合のエラー
var ErrNotConfigured = errors.New("フライト情報プロバイダーが設定されていません")

// プロバイダーの日時は時差表記なしで返るためUTCとして扱う
const timestampLayout = "2006-01-02T15:04:05"

// Criteria はフライト検索条件
type Criteria struct {
	Origin      string
	Destination string
	Date        time.Time
	Adults      int
	Max         int
}

// Offer はプロバイダーが返すフライトの候補
type Offer struct {
	Carrier       string
	Number        string
	DepartureAt   time.Time
	ArrivalAt     time.Time
	TotalPrice    string
	Currency      string
	NumberOfStops int
	BookableSeats int
}

// Key は重複排除に使う識別子を返す
func (o Offer) Key() string {
	return o.Carrier + o.Number + "_" + o.DepartureAt.Format("200601021504") + "_" + o.ArrivalAt.Format("200601021504")
}

// FlightNumber は便名を返す
func (o Offer) FlightNumber() string {
	return o.Carrier + o.Number
}

// Price は合計金額を数値で返す。解釈できない場合は fallback を返す
func (o Offer) Price(fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(o.TotalPrice), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

type offersResponse struct {
	Data []struct {
		NumberOfBookableSeats int `json:"numberOfBookableSeats"`
		Price                 struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
		Itineraries []struct {
			Segments []segment `json:"segments"`
		} `json:"itineraries"`
	} `json:"data"`
}

type segment struct {
	CarrierCode string   `json:"carrierCode"`
	Number      string   `json:"number"`
	Departure   endpoint `json:"departure"`
	Arrival     endpoint `json:"arrival"`
}

type endpoint struct {
	IataCode string `json:"iataCode"`
	At       string `json:"at"`
}

// Client はフライト情報プロバイダーのHTTPクライアント
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient は新しいClientを作成する
func NewClient(cfg *config.ProviderConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// SearchOffers は条件に合うフライト候補を取得する
func (c *Client) SearchOffers(ctx context.Context, criteria Criteria) ([]Offer, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	adults := criteria.Adults
	if adults < 1 {
		adults = 1
	}
	q := url.Values{}
	q.Set("originLocationCode", criteria.Origin)
	q.Set("destinationLocationCode", criteria.Destination)
	q.Set("departureDate", criteria.Date.Format("2006-01-02"))
	q.Set("adults", strconv.Itoa(adults))
	q.Set("currencyCode", "USD")
	if criteria.Max > 0 {
		q.Set("max", strconv.Itoa(criteria.Max))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/shopping/flight-offers?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("フライト検索リクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("フライト検索がステータス %d で失敗", resp.StatusCode)
	}

	var body offersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("レスポンスの解析に失敗: %w", err)
	}

	offers := make([]Offer, 0, len(body.Data))
	for _, d := range body.Data {
		if len(d.Itineraries) == 0 || len(d.Itineraries[0].Segments) == 0 {
			continue
		}
		segments := d.Itineraries[0].Segments
		first, last := segments[0], segments[len(segments)-1]
		dep, err := parseTimestamp(first.Departure.At)
		if err != nil {
			continue
		}
		arr, err := parseTimestamp(last.Arrival.At)
		if err != nil {
			continue
		}
		offers = append(offers, Offer{
			Carrier:       first.CarrierCode,
			Number:        first.Number,
			DepartureAt:   dep,
			ArrivalAt:     arr,
			TotalPrice:    d.Price.Total,
			Currency:      d.Price.Currency,
			NumberOfStops: len(segments) - 1,
			BookableSeats: d.NumberOfBookableSeats,
		})
	}
	return offers, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}
