package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound       = errors.New("座席が見つかりません")
	ErrSeatNotAvailable   = errors.New("座席は予約できません")
	ErrSeatFlightMismatch = errors.New("座席が指定されたフライトまたはクラスに属していません")
	ErrDuplicateSeatIDs   = errors.New("座席IDが重複しています")
	ErrSeatIDsRequired    = errors.New("座席IDは必須です")
	ErrFlightIDRequired   = errors.New("フライトIDは必須です")
	ErrSeatNumberRequired = errors.New("座席番号は必須です")

	// ErrSeatConflict は確認後に他の予約が座席を確保した場合に返す
	ErrSeatConflict = errors.New("座席は既に予約されています。座席表を再取得してください")
)
