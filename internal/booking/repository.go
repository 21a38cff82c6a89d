package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// Create inserts a booking and its slots in one transaction. A second
	// booking for the same payment intent fails with ErrDuplicatePaymentIntent.
	Create(ctx context.Context, booking *Booking, opts CreateOptions) error
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// HasConflict checks whether a paid booking of the service holds any of the slots.
	HasConflict(ctx context.Context, serviceID string, slots []Slot) (bool, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) Create(ctx context.Context, b *Booking, opts CreateOptions) error {
	if len(b.Slots) == 0 {
		return ErrNoSlots
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create booking tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if opts.RevalidateSlots {
		// Serialise revalidating confirmations per service so two of them cannot both pass the check.
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", b.ServiceID); err != nil {
			return fmt.Errorf("lock service slots failed: %w", err)
		}
		conflict, err := hasConflict(ctx, tx, b.ServiceID, b.Slots)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotConflict
		}
	}

	query, args, err := psql.Insert("public.bookings").
		Columns("id", "user_id", "service_id", "total_amount", "payment_status", "booking_status", "payment_intent_id").
		Values(b.ID, b.UserID, b.ServiceID, b.TotalAmount.StringFixed(2), string(b.PaymentStatus), string(b.Status), b.PaymentIntentID).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicatePaymentIntent
		}
		return fmt.Errorf("create booking failed: %w", err)
	}

	slotInsert := psql.Insert("public.booking_slots").
		Columns("booking_id", "position", "service_id", "slot_date", "start_time", "end_time")
	for i, s := range b.Slots {
		slotInsert = slotInsert.Values(b.ID, i, b.ServiceID, s.Date, s.StartTime, s.EndTime)
	}
	query, args, err = slotInsert.ToSql()
	if err != nil {
		return fmt.Errorf("build create booking slots query failed: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("create booking slots failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.payment_intent_id": paymentIntentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var (
		b     Booking
		total string
	)
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&b.ID, &b.UserID, &b.ServiceID, &b.ServiceTitle, &total,
		&b.PaymentStatus, &b.Status, &b.PaymentIntentID, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	if b.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse booking total %q: %w", total, err)
	}

	if err := r.loadSlots(ctx, []*Booking{&b}); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings().Column("count(*) OVER() AS total_count")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.PaymentStatus != "" {
		query = query.Where(squirrel.Eq{"b.payment_status": filter.PaymentStatus})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.booking_status": filter.Status})
	}

	// Most recent first
	query = query.OrderBy("b.created_at DESC")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var (
			b      Booking
			amount string
		)
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ServiceID, &b.ServiceTitle, &amount,
			&b.PaymentStatus, &b.Status, &b.PaymentIntentID, &b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		if b.TotalAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, 0, fmt.Errorf("parse booking total %q: %w", amount, err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	if err := r.loadSlots(ctx, bookings); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *pgxRepository) HasConflict(ctx context.Context, serviceID string, slots []Slot) (bool, error) {
	return hasConflict(ctx, r.pool, serviceID, slots)
}

func hasConflict(ctx context.Context, q querier, serviceID string, slots []Slot) (bool, error) {
	if len(slots) == 0 {
		return false, nil
	}

	// Logic:
	// 1. Same service
	// 2. Booking is paid
	// 3. Any stored slot equals any candidate on (date, start, end)
	match := squirrel.Or{}
	for _, s := range slots {
		match = append(match, squirrel.Expr(
			"(s.slot_date = ?::date AND s.start_time = ? AND s.end_time = ?)",
			s.Date, s.StartTime, s.EndTime,
		))
	}

	subQuery := psql.Select("1").
		From("public.booking_slots s").
		Join("public.bookings b ON b.id = s.booking_id").
		Where(squirrel.Eq{"s.service_id": serviceID}).
		Where(squirrel.Eq{"b.payment_status": string(PaymentPaid)}).
		Where(match)

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check conflict query failed: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check conflict failed: %w", err)
	}
	return exists, nil
}

func selectBookings() squirrel.SelectBuilder {
	return psql.Select(
		"b.id", "b.user_id", "b.service_id", "COALESCE(sv.title, '')", "b.total_amount::text",
		"b.payment_status", "b.booking_status", "b.payment_intent_id", "b.created_at", "b.updated_at",
	).
		From("public.bookings b").
		LeftJoin("public.services sv ON sv.id = b.service_id")
}

func (r *pgxRepository) loadSlots(ctx context.Context, bookings []*Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	byID := make(map[string]*Booking, len(bookings))
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	query, args, err := psql.Select("booking_id", "slot_date::text", "start_time", "end_time").
		From("public.booking_slots").
		Where(squirrel.Eq{"booking_id": ids}).
		OrderBy("booking_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("build list booking slots query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list booking slots failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookingID string
			s         Slot
		)
		if err := rows.Scan(&bookingID, &s.Date, &s.StartTime, &s.EndTime); err != nil {
			return fmt.Errorf("scan booking slot failed: %w", err)
		}
		if b, ok := byID[bookingID]; ok {
			b.Slots = append(b.Slots, s)
		}
	}
	return rows.Err()
}
