package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo *echo.Echo
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func asUser(userID string) map[string]string {
	return map[string]string{"X-User-ID": userID}
}

// searchFlight は路線を検索して最初のフライトIDを返す
func searchFlight(t *testing.T, server *TestServer, origin, destination string, daysAhead int) string {
	t.Helper()
	date := time.Now().UTC().AddDate(0, 0, daysAhead).Format("2006-01-02")
	path := fmt.Sprintf("/api/v1/flights/search?origin=%s&destination=%s&date=%s", origin, destination, date)
	rec := server.Request(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var flights []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flights))
	require.NotEmpty(t, flights)
	return flights[0]["id"].(string)
}

// availableSeats は指定クラスの空席IDを n 件返す
func availableSeats(t *testing.T, server *TestServer, flightID, class string, n int) []string {
	t.Helper()
	path := fmt.Sprintf("/api/v1/flights/%s/seats?class=%s&available=true", flightID, class)
	rec := server.Request(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var seats []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
	require.GreaterOrEqual(t, len(seats), n)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = seats[i]["id"].(string)
	}
	return ids
}

func availableCount(t *testing.T, server *TestServer, flightID, class string) float64 {
	t.Helper()
	path := fmt.Sprintf("/api/v1/flights/%s/seats/available/count?class=%s", flightID, class)
	rec := server.Request(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["available"].(float64)
}

func bookingBody(flightID, class string, seatIDs []string) map[string]interface{} {
	return map[string]interface{}{
		"flight_id":       flightID,
		"class":           class,
		"passenger_count": len(seatIDs),
		"seat_ids":        seatIDs,
		"passenger": map[string]interface{}{
			"first_name": "Taro",
			"last_name":  "Yamada",
			"email":      "taro@example.com",
		},
	}
}

// TestE2E_HealthCheck はヘルスチェックをテスト
func TestE2E_HealthCheck(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request(http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

// TestE2E_Catalog はマスタデータの取得をテスト
func TestE2E_Catalog(t *testing.T) {
	server := getTestServer(t)

	t.Run("都市一覧", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/cities", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"JFK"`)
	})

	t.Run("機内食一覧", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/meals", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"type":"standard"`)
	})
}

// TestE2E_CompleteBookingJourney は検索から確定までの一連の流れをテスト
func TestE2E_CompleteBookingJourney(t *testing.T) {
	server := getTestServer(t)

	userID := "e2e-user-yamada"
	var flightID, bookingID, reference string
	var seatIDs []string

	t.Run("フライト検索で座席表が作られる", func(t *testing.T) {
		flightID = searchFlight(t, server, "JFK", "LHR", 60)

		rec := server.Request(http.MethodGet, fmt.Sprintf("/api/v1/flights/%s/seats", flightID), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var seats []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
		assert.Len(t, seats, 144)
		assert.Equal(t, float64(132), availableCount(t, server, flightID, "economy"))
		assert.Equal(t, float64(12), availableCount(t, server, flightID, "business"))
	})

	t.Run("同じ条件の再検索では同じフライトが返る", func(t *testing.T) {
		assert.Equal(t, flightID, searchFlight(t, server, "JFK", "LHR", 60))
	})

	t.Run("予約作成", func(t *testing.T) {
		seatIDs = availableSeats(t, server, flightID, "economy", 2)

		rec := server.Request(http.MethodPost, "/api/v1/bookings", bookingBody(flightID, "economy", seatIDs), asUser(userID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		bookingID = resp["id"].(string)
		reference = resp["reference"].(string)
		assert.Equal(t, "pending", resp["status"])
		assert.Len(t, reference, 8)
		assert.Len(t, resp["lines"], 2)
	})

	t.Run("空席数が減る", func(t *testing.T) {
		assert.Equal(t, float64(130), availableCount(t, server, flightID, "economy"))
	})

	t.Run("予約確定", func(t *testing.T) {
		rec := server.Request(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/confirm", bookingID), nil, asUser(userID))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)
	})

	t.Run("予約番号で取得できる", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/bookings/reference/"+reference, nil, asUser(userID))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), bookingID)
	})

	t.Run("他のユーザーからは見えない", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/bookings/"+bookingID, nil, asUser("someone-else"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("予約一覧", func(t *testing.T) {
		rec := server.Request(http.MethodGet, "/api/v1/bookings", nil, asUser(userID))
		require.Equal(t, http.StatusOK, rec.Code)
		var list []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})
}

// TestE2E_SeatConflict は同じ座席への予約が拒否されることをテスト
func TestE2E_SeatConflict(t *testing.T) {
	server := getTestServer(t)

	flightID := searchFlight(t, server, "NRT", "SIN", 45)
	seatIDs := availableSeats(t, server, flightID, "business", 1)

	t.Run("ユーザーAが予約成功", func(t *testing.T) {
		rec := server.Request(http.MethodPost, "/api/v1/bookings", bookingBody(flightID, "business", seatIDs), asUser("user-A"))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("ユーザーBが同じ座席を予約しようとして失敗", func(t *testing.T) {
		rec := server.Request(http.MethodPost, "/api/v1/bookings", bookingBody(flightID, "business", seatIDs), asUser("user-B"))
		// 事前確認で弾かれれば 400、確保時の競合なら 409
		assert.True(t, rec.Code == http.StatusBadRequest || rec.Code == http.StatusConflict,
			"期待: 400 or 409, 実際: %d", rec.Code)
	})

	t.Run("ユーザーIDなしは401", func(t *testing.T) {
		rec := server.Request(http.MethodPost, "/api/v1/bookings", bookingBody(flightID, "business", seatIDs), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// TestE2E_ConcurrentBooking は同じ座席への同時予約で1件だけ成功することをテスト
func TestE2E_ConcurrentBooking(t *testing.T) {
	server := getTestServer(t)

	flightID := searchFlight(t, server, "DXB", "SYD", 30)
	seatIDs := availableSeats(t, server, flightID, "economy", 1)

	const workers = 8
	codes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := server.Request(http.MethodPost, "/api/v1/bookings",
				bookingBody(flightID, "economy", seatIDs), asUser(fmt.Sprintf("user-%d", i)))
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
			continue
		}
		assert.Contains(t, []int{http.StatusBadRequest, http.StatusConflict}, code)
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, float64(131), availableCount(t, server, flightID, "economy"))
}

// TestE2E_CancelAndRebook はキャンセル後に同じ座席を再予約できることをテスト
func TestE2E_CancelAndRebook(t *testing.T) {
	server := getTestServer(t)

	flightID := searchFlight(t, server, "LHR", "CPT", 30)
	seatIDs := availableSeats(t, server, flightID, "economy", 2)

	rec := server.Request(http.MethodPost, "/api/v1/bookings", bookingBody(flightID, "economy", seatIDs), asUser("user-cancel"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	bookingID := created["id"].(string)

	t.Run("キャンセルで座席が解放される", func(t *testing.T) {
		rec := server.Request(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", bookingID),
			map[string]string{"reason": "予定変更"}, asUser("user-cancel"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
		assert.Equal(t, float64(132), availableCount(t, server, flightID, "economy"))
	})

	t.Run("二重キャンセルは409", func(t *testing.T) {
		rec := server.Request(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", bookingID), nil, asUser("user-cancel"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("別のユーザーが同じ座席を予約できる", func(t *testing.T) {
		rec := server.Request(http.MethodPost, "/api/v1/bookings", bookingBody(flightID, "economy", seatIDs), asUser("user-rebook"))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

// TestE2E_CancellationWindow は搭乗7日前を過ぎるとキャンセルできないことをテスト
func TestE2E_CancellationWindow(t *testing.T) {
	server := getTestServer(t)

	flightID := searchFlight(t, server, "SIN", "NRT", 3)
	seatIDs := availableSeats(t, server, flightID, "economy", 1)

	rec := server.Request(http.MethodPost, "/api/v1/bookings", bookingBody(flightID, "economy", seatIDs), asUser("user-late"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = server.Request(http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", created["id"]), nil, asUser("user-late"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var errResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "conflict", errResp["kind"])
}

// TestE2E_SearchValidation は検索条件の検証をテスト
func TestE2E_SearchValidation(t *testing.T) {
	server := getTestServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "同じ空港", path: "/api/v1/flights/search?origin=JFK&destination=JFK&date=2030-01-10", want: http.StatusBadRequest},
		{name: "日付なし", path: "/api/v1/flights/search?origin=JFK&destination=LHR", want: http.StatusBadRequest},
		{name: "未知の空港は空配列", path: "/api/v1/flights/search?origin=JFK&destination=ZZZ&date=2030-01-10", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := server.Request(http.MethodGet, tt.path, nil, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
