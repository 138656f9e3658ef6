package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pizzadash/dispatch/internal/dal/postgres"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
)

// RiderDal represents the rider data access layer model.
type RiderDal struct {
	Id        int64     `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToModel converts RiderDal to the service layer Rider model.
func (r *RiderDal) ToModel() *rider.Rider {
	return &rider.Rider{
		ID:        r.Id,
		Name:      r.Name,
		Phone:     r.Phone,
		Email:     r.Email,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// PostgresRiderRepository is the Postgres rider directory repository.
type PostgresRiderRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresRiderRepository creates a new Postgres rider repository.
func NewPostgresRiderRepository(conn postgres.Conn) *PostgresRiderRepository {
	return &PostgresRiderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanRider(row pgx.Row) (*RiderDal, error) {
	var dal RiderDal
	err := row.Scan(
		&dal.Id,
		&dal.Name,
		&dal.Phone,
		&dal.Email,
		&dal.IsActive,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &dal, nil
}

// Insert stores a new rider.
func (r *PostgresRiderRepository) Insert(ctx context.Context, rd rider.Rider) (rider.Rider, error) {
	query, args, err := r.sb.Insert("riders").
		Columns("name", "phone", "email", "is_active", "created_at", "updated_at").
		Values(rd.Name, rd.Phone, rd.Email, rd.IsActive, rd.CreatedAt, rd.UpdatedAt).
		Suffix("RETURNING id, name, phone, email, is_active, created_at, updated_at").
		ToSql()
	if err != nil {
		return rider.Rider{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	dal, err := scanRider(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return rider.Rider{}, fmt.Errorf("failed to insert rider: %w", err)
	}

	return *dal.ToModel(), nil
}

// Get retrieves a rider by id.
func (r *PostgresRiderRepository) Get(ctx context.Context, id int64) (rider.Rider, error) {
	query, args, err := r.sb.Select("id", "name", "phone", "email", "is_active", "created_at", "updated_at").
		From("riders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return rider.Rider{}, fmt.Errorf("failed to build select query: %w", err)
	}

	dal, err := scanRider(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rider.Rider{}, apperr.NotFoundf("rider %d not found", id)
		}

		return rider.Rider{}, fmt.Errorf("failed to get rider: %w", err)
	}

	return *dal.ToModel(), nil
}

// List retrieves riders, optionally only active ones.
func (r *PostgresRiderRepository) List(ctx context.Context, onlyActive bool) ([]rider.Rider, error) {
	query := r.sb.Select("id", "name", "phone", "email", "is_active", "created_at", "updated_at").
		From("riders").
		OrderBy("id ASC")

	if onlyActive {
		query = query.Where(sq.Eq{"is_active": true})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query riders: %w", err)
	}
	defer rows.Close()

	var result []rider.Rider
	for rows.Next() {
		dal, err := scanRider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rider: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// SetActive flips the is_active flag. Deactivation hides the rider from
// assignment pools without touching existing orders or location history.
func (r *PostgresRiderRepository) SetActive(ctx context.Context, id int64, active bool) (rider.Rider, error) {
	query, args, err := r.sb.Update("riders").
		Set("is_active", active).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, phone, email, is_active, created_at, updated_at").
		ToSql()
	if err != nil {
		return rider.Rider{}, fmt.Errorf("failed to build update query: %w", err)
	}

	dal, err := scanRider(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rider.Rider{}, apperr.NotFoundf("rider %d not found", id)
		}

		return rider.Rider{}, fmt.Errorf("failed to update rider: %w", err)
	}

	return *dal.ToModel(), nil
}
