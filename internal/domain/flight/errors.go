package flight

import "errors"

// Flight ドメインのエラー定義
var (
	ErrFlightNotFound        = errors.New("フライトが見つかりません")
	ErrFlightNumberRequired  = errors.New("便名は必須です")
	ErrRouteRequired         = errors.New("出発地と到着地は必須です")
	ErrSameOriginDestination = errors.New("出発地と到着地が同じです")
	ErrInvalidSchedule       = errors.New("到着時刻は出発時刻より後である必要があります")
	ErrInvalidPrice          = errors.New("価格は0以上である必要があります")
	ErrInvalidClass          = errors.New("客室クラスが不正です")
)
