package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

const (
	// HeaderUserID は JWT を使わない環境でユーザーを識別するヘッダー
	HeaderUserID = "X-User-ID"

	userIDKey = "user_id"
)

// UserIdentity は予約APIの利用者を識別するミドルウェア
// secret が設定されていれば HS256 の Bearer トークンの sub を、なければ X-User-ID ヘッダーを使う
func UserIdentity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var (
				userID string
				err    error
			)
			if secret != "" {
				userID, err = subjectFromBearer(c.Request().Header.Get(echo.HeaderAuthorization), secret)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが無効です").SetInternal(err)
				}
			} else {
				userID = strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			}
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
			}

			c.Set(userIDKey, userID)
			ctx := c.Request().Context()
			l := logger.FromContext(ctx).With(zap.String("user_id", userID))
			c.SetRequest(c.Request().WithContext(logger.NewContext(ctx, l)))
			return next(c)
		}
	}
}

// UserID は識別済みのユーザーIDを返す
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func subjectFromBearer(header, secret string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", jwt.ErrTokenMalformed
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	return tok.Claims.GetSubject()
}
