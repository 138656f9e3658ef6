package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/iorderrepo"
	"github.com/pizzadash/dispatch/internal/dal/postgres"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/currency"
	"github.com/pizzadash/dispatch/internal/service/models/order"
	"github.com/pizzadash/dispatch/internal/service/models/orderitem"
)

// orderColumns is the canonical column list used by every statement so scans
// stay aligned with selects.
var orderColumns = []string{
	"id",
	"order_number",
	"customer_name",
	"customer_email",
	"customer_phone",
	"delivery_address",
	"delivery_type",
	"payment_method",
	"special_instructions",
	"delivery_fee_cents",
	"total_amount_cents",
	"currency",
	"delivery_status",
	"rider_id",
	"created_at",
	"updated_at",
	"dispatched_at",
	"delivered_at",
}

// OrderDal represents the order data access layer model.
type OrderDal struct {
	Id                  int64      `db:"id"`
	OrderNumber         string     `db:"order_number"`
	CustomerName        string     `db:"customer_name"`
	CustomerEmail       string     `db:"customer_email"`
	CustomerPhone       string     `db:"customer_phone"`
	DeliveryAddress     string     `db:"delivery_address"`
	DeliveryType        string     `db:"delivery_type"`
	PaymentMethod       string     `db:"payment_method"`
	SpecialInstructions string     `db:"special_instructions"`
	DeliveryFeeCents    int64      `db:"delivery_fee_cents"`
	TotalAmountCents    int64      `db:"total_amount_cents"`
	Currency            string     `db:"currency"`
	DeliveryStatus      string     `db:"delivery_status"`
	RiderId             *int64     `db:"rider_id"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DispatchedAt        *time.Time `db:"dispatched_at"`
	DeliveredAt         *time.Time `db:"delivered_at"`
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(o.Currency)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(o.DeliveryStatus)
	if err != nil {
		return nil, err
	}
	deliveryType, err := order.ParseDeliveryType(o.DeliveryType)
	if err != nil {
		return nil, err
	}
	paymentMethod, err := order.ParsePaymentMethod(o.PaymentMethod)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:                  o.Id,
		OrderNumber:         o.OrderNumber,
		CustomerName:        o.CustomerName,
		CustomerEmail:       o.CustomerEmail,
		CustomerPhone:       o.CustomerPhone,
		DeliveryAddress:     o.DeliveryAddress,
		DeliveryType:        deliveryType,
		PaymentMethod:       paymentMethod,
		SpecialInstructions: o.SpecialInstructions,
		DeliveryFeeCents:    o.DeliveryFeeCents,
		TotalAmountCents:    o.TotalAmountCents,
		Currency:            cur,
		DeliveryStatus:      status,
		RiderID:             o.RiderId,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		DispatchedAt:        o.DispatchedAt,
		DeliveredAt:         o.DeliveredAt,
		OrderItems:          []orderitem.OrderItem{}, // Populated separately
	}, nil
}

// PostgresOrderRepository is the Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.Conn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.Id,
		&dal.OrderNumber,
		&dal.CustomerName,
		&dal.CustomerEmail,
		&dal.CustomerPhone,
		&dal.DeliveryAddress,
		&dal.DeliveryType,
		&dal.PaymentMethod,
		&dal.SpecialInstructions,
		&dal.DeliveryFeeCents,
		&dal.TotalAmountCents,
		&dal.Currency,
		&dal.DeliveryStatus,
		&dal.RiderId,
		&dal.CreatedAt,
		&dal.UpdatedAt,
		&dal.DispatchedAt,
		&dal.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}

	return dal.ToModel()
}

// Insert stores a new order and returns it with its id and generated
// order number.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	query, args, err := r.sb.Insert("orders").
		Columns(
			"order_number",
			"customer_name",
			"customer_email",
			"customer_phone",
			"delivery_address",
			"delivery_type",
			"payment_method",
			"special_instructions",
			"delivery_fee_cents",
			"total_amount_cents",
			"currency",
			"delivery_status",
			"created_at",
			"updated_at",
		).
		Values(
			sq.Expr("'ORD-' || lpad(nextval('order_number_seq')::text, 6, '0')"),
			o.CustomerName,
			o.CustomerEmail,
			o.CustomerPhone,
			o.DeliveryAddress,
			o.DeliveryType,
			o.PaymentMethod,
			o.SpecialInstructions,
			o.DeliveryFeeCents,
			o.TotalAmountCents,
			o.Currency,
			o.DeliveryStatus,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	inserted, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return *inserted, nil
}

// Get retrieves a single order by id.
func (r *PostgresOrderRepository) Get(ctx context.Context, id int64) (order.Order, error) {
	query, args, err := r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build select query: %w", err)
	}

	o, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, apperr.NotFoundf("order %d not found", id)
		}

		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	return *o, nil
}

// Query retrieves orders based on filter criteria, ordered by creation time.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.sb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at ASC")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, s.String())
		}
		query = query.Where(sq.Eq{"delivery_status": statuses})
	}
	if len(filter.RiderIds) > 0 {
		query = query.Where(sq.Eq{"rider_id": filter.RiderIds})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus applies a status transition with an optimistic-concurrency
// check: the row is updated only while its status still equals FromExpected.
// iorderrepo.ErrNotUpdated is returned when no row matched.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, model iorderrepo.UpdateStatusModel) (order.Order, error) {
	update := r.sb.Update("orders").
		Set("delivery_status", model.To).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": model.OrderID}).
		Where(sq.Eq{"delivery_status": model.FromExpected.String()})

	if model.RiderID != nil {
		update = update.Set("rider_id", *model.RiderID)
	}
	if model.DispatchedAt != nil {
		update = update.Set("dispatched_at", *model.DispatchedAt)
	}
	if model.DeliveredAt != nil {
		update = update.Set("delivered_at", *model.DeliveredAt)
	}

	query, args, err := update.Suffix("RETURNING " + columnList()).ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build update query: %w", err)
	}

	o, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, iorderrepo.ErrNotUpdated
		}

		return order.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	return *o, nil
}

func columnList() string {
	return strings.Join(orderColumns, ", ")
}
