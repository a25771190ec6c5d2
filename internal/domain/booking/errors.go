package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound          = errors.New("予約が見つかりません")
	ErrBookingNotPending        = errors.New("予約は保留中ではありません")
	ErrBookingNotConfirmed      = errors.New("予約は確定されていません")
	ErrBookingAlreadyCancelled  = errors.New("予約は既にキャンセルされています")
	ErrCancellationWindowClosed = errors.New("搭乗日の7日前を過ぎた予約はキャンセルできません")
	ErrUserIDRequired           = errors.New("ユーザーIDは必須です")
	ErrLinesRequired            = errors.New("予約明細は必須です")
	ErrInvalidAmount            = errors.New("金額は0以上である必要があります")
	ErrPassengerNameRequired    = errors.New("搭乗者の氏名は必須です")
	ErrPassengerEmailRequired   = errors.New("搭乗者のメールアドレスが不正です")
	ErrInvalidPassengerCount    = errors.New("搭乗者数は1以上である必要があります")
	ErrSeatCountMismatch        = errors.New("座席数が搭乗者数と一致しません")
	ErrNotEnoughSeats           = errors.New("空席が不足しています")
	ErrSeatsBeingProcessed      = errors.New("座席が他のユーザーによって処理中です")
	ErrReferenceConflict        = errors.New("予約番号が重複しています")
	ErrReferenceExhausted       = errors.New("予約番号の採番に失敗しました")
)
