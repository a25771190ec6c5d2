package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

const seatColumns = `id, flight_id, seat_row, seat_letter, class, is_available, created_at, updated_at`

type seatRow struct {
	ID          string    `db:"id"`
	FlightID    string    `db:"flight_id"`
	Row         int       `db:"seat_row"`
	Letter      string    `db:"seat_letter"`
	Class       string    `db:"class"`
	IsAvailable bool      `db:"is_available"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, FlightID: r.FlightID, Row: r.Row, Letter: strings.TrimSpace(r.Letter),
		Class: flight.Class(r.Class), IsAvailable: r.IsAvailable,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行
// 同じ座席番号が既にあれば何もしないため、座席表の再生成は冪等になる
func (r *SeatRepository) createBulkBatch(ctx context.Context, seats []*seat.Seat) error {
	const cols = 7
	args := make([]interface{}, 0, len(seats)*cols)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, s.FlightID, s.Row, s.Letter, string(s.Class), s.IsAvailable, s.CreatedAt, s.UpdatedAt)
	}

	query := `INSERT INTO seats (flight_id, seat_row, seat_letter, class, is_available, created_at, updated_at) VALUES ` +
		strings.Join(placeholders, ", ") +
		` ON CONFLICT (flight_id, seat_row, seat_letter) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	var row seatRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+seatColumns+` FROM seats WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SeatRepository) ListByFlight(ctx context.Context, flightID string, filter seat.Filter) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE flight_id = $1`
	args := []interface{}{flightID}
	if filter.Class != nil {
		args = append(args, string(*filter.Class))
		query += fmt.Sprintf(" AND class = $%d", len(args))
	}
	if filter.AvailableOnly {
		query += " AND is_available = TRUE"
	}
	query += " ORDER BY seat_row, seat_letter"

	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if isInvalidID(err) {
			return []*seat.Seat{}, nil
		}
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats, nil
}

func (r *SeatRepository) CountByFlightID(ctx context.Context, flightID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE flight_id = $1`, flightID); err != nil {
		return 0, fmt.Errorf("座席数取得に失敗: %w", err)
	}
	return count, nil
}

func (r *SeatRepository) CountAvailable(ctx context.Context, flightID string, class flight.Class) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM seats WHERE flight_id = $1 AND class = $2 AND is_available = TRUE`,
		flightID, string(class))
	if err != nil {
		return 0, fmt.Errorf("空席数取得に失敗: %w", err)
	}
	return count, nil
}

func (r *SeatRepository) CountOccupied(ctx context.Context, flightID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM seats WHERE flight_id = $1 AND is_available = FALSE`, flightID)
	if err != nil {
		return 0, fmt.Errorf("使用中座席数取得に失敗: %w", err)
	}
	return count, nil
}

// ReserveSeats は空席だけを条件付きで更新し、1席でも取れなければ ErrSeatConflict を返す
func (r *SeatRepository) ReserveSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	sqlTx, err := mustUnwrap(tx)
	if err != nil {
		return err
	}
	query := `UPDATE seats SET is_available = FALSE, updated_at = NOW() WHERE id = ANY($1) AND is_available = TRUE`
	result, err := sqlTx.ExecContext(ctx, query, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("座席確保に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("座席確保件数の取得に失敗: %w", err)
	}
	if int(rows) != len(seatIDs) {
		return seat.ErrSeatConflict
	}
	return nil
}

func (r *SeatRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	sqlTx, err := mustUnwrap(tx)
	if err != nil {
		return err
	}
	query := `UPDATE seats SET is_available = TRUE, updated_at = NOW() WHERE id = ANY($1) AND is_available = FALSE`
	if _, err := sqlTx.ExecContext(ctx, query, pq.Array(seatIDs)); err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	return nil
}

var _ seat.Repository = (*SeatRepository)(nil)
