package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

const bookingColumns = `id, reference, user_id, status, passenger_first_name, passenger_last_name,
	passport_number, date_of_birth, contact_email, contact_phone, total_amount,
	cancellation_reason, cancelled_at, confirmed_at, created_at, updated_at`

// 有効な明細が同じ座席を参照することを防ぐ部分一意インデックス
const activeSeatConstraint = "uq_booking_flights_active_seat"

type bookingRow struct {
	ID                 string         `db:"id"`
	Reference          string         `db:"reference"`
	UserID             string         `db:"user_id"`
	Status             string         `db:"status"`
	FirstName          string         `db:"passenger_first_name"`
	LastName           string         `db:"passenger_last_name"`
	PassportNumber     sql.NullString `db:"passport_number"`
	DateOfBirth        *time.Time     `db:"date_of_birth"`
	Email              string         `db:"contact_email"`
	Phone              sql.NullString `db:"contact_phone"`
	TotalAmount        float64        `db:"total_amount"`
	CancellationReason sql.NullString `db:"cancellation_reason"`
	CancelledAt        *time.Time     `db:"cancelled_at"`
	ConfirmedAt        *time.Time     `db:"confirmed_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

type bookingLineRow struct {
	ID         string     `db:"id"`
	BookingID  string     `db:"booking_id"`
	FlightID   string     `db:"flight_id"`
	SeatID     *string    `db:"seat_id"`
	MealID     *string    `db:"meal_id"`
	Class      string     `db:"class"`
	Price      float64    `db:"price"`
	ReleasedAt *time.Time `db:"released_at"`
}

func (r *bookingLineRow) toLine() booking.Line {
	return booking.Line{
		ID: r.ID, BookingID: r.BookingID, FlightID: r.FlightID,
		SeatID: r.SeatID, MealID: r.MealID, Class: flight.Class(r.Class),
		Price: r.Price, ReleasedAt: r.ReleasedAt,
	}
}

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository { return &BookingRepository{db: db} }

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlTx, err := mustUnwrap(tx)
	if err != nil {
		return err
	}

	// 予約番号の衝突はエラーにせず0行で返させ、呼び出し側で採番し直す
	query := `INSERT INTO bookings (reference, user_id, status, passenger_first_name, passenger_last_name,
		passport_number, date_of_birth, contact_email, contact_phone, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (reference) DO NOTHING RETURNING id`
	p := b.Passenger
	err = sqlTx.QueryRowContext(ctx, query,
		b.Reference, b.UserID, string(b.Status), p.FirstName, p.LastName,
		nullString(p.PassportNumber), p.DateOfBirth, p.Email, nullString(p.Phone),
		b.TotalAmount, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrReferenceConflict
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}

	lineQuery := `INSERT INTO booking_flights (booking_id, flight_id, seat_id, meal_id, class, price)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range b.Lines {
		l := &b.Lines[i]
		l.BookingID = b.ID
		if err := sqlTx.QueryRowContext(ctx, lineQuery,
			b.ID, l.FlightID, l.SeatID, l.MealID, string(l.Class), l.Price,
		).Scan(&l.ID); err != nil {
			if isUniqueViolation(err, activeSeatConstraint) {
				return seat.ErrSeatConflict
			}
			return fmt.Errorf("予約明細作成に失敗: %w", err)
		}
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, reference)
}

func (r *BookingRepository) getOne(ctx context.Context, query string, arg string) (*booking.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	lines, err := r.getLines(ctx, []string{row.ID})
	if err != nil {
		return nil, err
	}
	return toBooking(&row, lines[row.ID]), nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	if len(rows) == 0 {
		return []*booking.Booking{}, nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	lines, err := r.getLines(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = toBooking(&rows[i], lines[rows[i].ID])
	}
	return result, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlTx, err := mustUnwrap(tx)
	if err != nil {
		return err
	}
	// 保留中の行だけを遷移させる。並行して遷移済みなら0行になる
	query := `UPDATE bookings SET status = $1, confirmed_at = $2, cancelled_at = $3,
		cancellation_reason = $4, updated_at = $5 WHERE id = $6 AND status = 'pending'`
	result, err := sqlTx.ExecContext(ctx, query,
		string(b.Status), b.ConfirmedAt, b.CancelledAt, nullString(b.CancellationReason), b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("予約更新件数の取得に失敗: %w", err)
	}
	if rows == 0 {
		return booking.ErrBookingNotPending
	}
	return nil
}

func (r *BookingRepository) ReleaseLines(ctx context.Context, tx transaction.Tx, bookingID string) error {
	sqlTx, err := mustUnwrap(tx)
	if err != nil {
		return err
	}
	query := `UPDATE booking_flights SET released_at = NOW() WHERE booking_id = $1 AND released_at IS NULL`
	if _, err := sqlTx.ExecContext(ctx, query, bookingID); err != nil {
		return fmt.Errorf("予約明細の解放に失敗: %w", err)
	}
	return nil
}

// CompleteDeparted は全明細のフライトが now までに出発した確定予約を完了にする
func (r *BookingRepository) CompleteDeparted(ctx context.Context, now time.Time) (int, error) {
	query := `UPDATE bookings b SET status = 'completed', updated_at = $1
		WHERE b.status = 'confirmed'
		AND NOT EXISTS (
			SELECT 1 FROM booking_flights bf JOIN flights f ON f.id = bf.flight_id
			WHERE bf.booking_id = b.id AND f.departure_at > $1
		)`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("搭乗完了処理に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("搭乗完了件数の取得に失敗: %w", err)
	}
	return int(rows), nil
}

func (r *BookingRepository) getLines(ctx context.Context, bookingIDs []string) (map[string][]booking.Line, error) {
	var rows []bookingLineRow
	query := `SELECT id, booking_id, flight_id, seat_id, meal_id, class, price, released_at
		FROM booking_flights WHERE booking_id = ANY($1) ORDER BY booking_id, id`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(bookingIDs)); err != nil {
		return nil, fmt.Errorf("予約明細取得に失敗: %w", err)
	}
	lines := make(map[string][]booking.Line, len(bookingIDs))
	for i := range rows {
		lines[rows[i].BookingID] = append(lines[rows[i].BookingID], rows[i].toLine())
	}
	return lines, nil
}

func toBooking(row *bookingRow, lines []booking.Line) *booking.Booking {
	return &booking.Booking{
		ID: row.ID, Reference: row.Reference, UserID: row.UserID,
		Status: booking.Status(row.Status),
		Passenger: booking.Passenger{
			FirstName: row.FirstName, LastName: row.LastName,
			PassportNumber: row.PassportNumber.String, DateOfBirth: row.DateOfBirth,
			Email: row.Email, Phone: row.Phone.String,
		},
		TotalAmount:        row.TotalAmount,
		Lines:              lines,
		CancellationReason: row.CancellationReason.String,
		CancelledAt:        row.CancelledAt,
		ConfirmedAt:        row.ConfirmedAt,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ booking.Repository = (*BookingRepository)(nil)
