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
	"github.com/pizzadash/dispatch/internal/service/models/location"
)

// LocationDal represents the rider location data access layer model.
type LocationDal struct {
	Id         int64     `db:"id"`
	RiderId    int64     `db:"rider_id"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	Heading    *float64  `db:"heading"`
	Speed      *float64  `db:"speed"`
	RecordedAt time.Time `db:"recorded_at"`
}

// ToModel converts LocationDal to the service layer Location model.
func (l *LocationDal) ToModel() *location.Location {
	return &location.Location{
		ID:         l.Id,
		RiderID:    l.RiderId,
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		Heading:    l.Heading,
		Speed:      l.Speed,
		RecordedAt: l.RecordedAt,
	}
}

// PostgresLocationRepository is the Postgres rider location repository. The
// rider_locations table is append-only; the "current location" of a rider is
// derived as the row with the latest recorded_at.
type PostgresLocationRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresLocationRepository creates a new Postgres location repository.
func NewPostgresLocationRepository(conn postgres.Conn) *PostgresLocationRepository {
	return &PostgresLocationRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanLocation(row pgx.Row) (*LocationDal, error) {
	var dal LocationDal
	err := row.Scan(
		&dal.Id,
		&dal.RiderId,
		&dal.Latitude,
		&dal.Longitude,
		&dal.Heading,
		&dal.Speed,
		&dal.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	return &dal, nil
}

// appendSQL builds the report insert. Heading and speed pass through as
// nullable pointers; the columns allow NULL so a minimal lat/lng report
// stores cleanly.
func (r *PostgresLocationRepository) appendSQL(loc location.Location) (string, []interface{}, error) {
	return r.sb.Insert("rider_locations").
		Columns("rider_id", "latitude", "longitude", "heading", "speed", "recorded_at").
		Values(loc.RiderID, loc.Latitude, loc.Longitude, loc.Heading, loc.Speed, loc.RecordedAt).
		Suffix("ON CONFLICT (rider_id, recorded_at) DO NOTHING RETURNING id, rider_id, latitude, longitude, heading, speed, recorded_at").
		ToSql()
}

// Append stores a location report. A retry carrying the same
// (rider_id, recorded_at) pair hits the unique constraint and is treated as
// a no-op rather than an error; inserted reports false in that case.
func (r *PostgresLocationRepository) Append(ctx context.Context, loc location.Location) (location.Location, bool, error) {
	query, args, err := r.appendSQL(loc)
	if err != nil {
		return location.Location{}, false, fmt.Errorf("failed to build insert query: %w", err)
	}

	dal, err := scanLocation(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Duplicate report; the original row wins.
			return loc, false, nil
		}

		return location.Location{}, false, fmt.Errorf("failed to append rider location: %w", err)
	}

	return *dal.ToModel(), true, nil
}

// Latest returns the most recent report for a rider.
func (r *PostgresLocationRepository) Latest(ctx context.Context, riderID int64) (location.Location, error) {
	query, args, err := r.sb.Select("id", "rider_id", "latitude", "longitude", "heading", "speed", "recorded_at").
		From("rider_locations").
		Where(sq.Eq{"rider_id": riderID}).
		OrderBy("recorded_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return location.Location{}, fmt.Errorf("failed to build select query: %w", err)
	}

	dal, err := scanLocation(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, apperr.NotFoundf("no location reported for rider %d", riderID)
		}

		return location.Location{}, fmt.Errorf("failed to get latest rider location: %w", err)
	}

	return *dal.ToModel(), nil
}

// LatestForActiveRiders returns the most recent report per active rider in
// a single snapshot query, keyed by rider id.
func (r *PostgresLocationRepository) LatestForActiveRiders(ctx context.Context) (map[int64]location.Location, error) {
	sqlStr := `
		SELECT DISTINCT ON (l.rider_id)
			l.id,
			l.rider_id,
			l.latitude,
			l.longitude,
			l.heading,
			l.speed,
			l.recorded_at
		FROM rider_locations l
		JOIN riders r ON r.id = l.rider_id
		WHERE r.is_active
		ORDER BY l.rider_id, l.recorded_at DESC
	`

	rows, err := r.conn.Query(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest rider locations: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]location.Location)
	for rows.Next() {
		dal, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rider location: %w", err)
		}
		result[dal.RiderId] = *dal.ToModel()
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
