package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type shipmentService struct {
	pool  *pgxpool.Pool
	clock Clock
}

func NewShipmentService(pool *pgxpool.Pool, clock Clock) ShipmentService {
	return &shipmentService{pool: pool, clock: clock}
}

func (s *shipmentService) CreateShipment(ctx context.Context, p Principal, input CreateShipmentInput) (*Shipment, error) {
	if err := p.Require(ActionManageShipments); err != nil {
		return nil, err
	}
	input.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	input.Carrier = strings.TrimSpace(input.Carrier)
	input.Remarks = strings.TrimSpace(input.Remarks)
	if input.TrackingNumber == "" {
		return nil, validationErrorf("tracking number is required")
	}
	dispatch := dateOnly(s.clock.Now())
	if input.DispatchDate != nil {
		dispatch = dateOnly(*input.DispatchDate)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockOrderTx(ctx, tx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if status != OrderApproved {
		return nil, conflictErrorf("order %d cannot be shipped: status is %s", input.OrderID, status)
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO shipments (order_id, tracking_number, carrier, status, dispatch_date, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		input.OrderID, input.TrackingNumber, input.Carrier, ShipmentDispatched, dispatch, input.Remarks,
	).Scan(&id)
	if err != nil {
		switch {
		case isUniqueViolation(err, "shipments_tracking_number_key"):
			return nil, conflictErrorf("tracking number %q is already in use", input.TrackingNumber)
		case isUniqueViolation(err, ""):
			return nil, conflictErrorf("order %d has already been shipped", input.OrderID)
		}
		return nil, fmt.Errorf("insert shipment for order %d: %w", input.OrderID, err)
	}

	if err := transitionOrderTx(ctx, tx, input.OrderID, OrderShipped); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit shipment: %w", err)
	}
	return s.GetShipment(ctx, id)
}

func (s *shipmentService) UpdateShipment(ctx context.Context, p Principal, shipmentID int, input UpdateShipmentInput) (*Shipment, error) {
	if err := p.Require(ActionManageShipments); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	var current ShipmentStatus
	if err := tx.QueryRow(ctx,
		"SELECT order_id, status FROM shipments WHERE id = $1 FOR UPDATE", shipmentID,
	).Scan(&orderID, &current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("shipment %d", shipmentID)
		}
		return nil, fmt.Errorf("lock shipment %d: %w", shipmentID, err)
	}

	set := []string{}
	var args []any
	add := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if input.Carrier != nil {
		add("carrier", strings.TrimSpace(*input.Carrier))
	}
	if input.Remarks != nil {
		add("remarks", strings.TrimSpace(*input.Remarks))
	}

	delivered := false
	if input.Status != nil && *input.Status != current {
		if !current.CanAdvanceTo(*input.Status) {
			return nil, conflictErrorf("shipment %d cannot move from %s to %s", shipmentID, current, *input.Status)
		}
		add("status", *input.Status)
		if *input.Status == ShipmentDelivered {
			delivered = true
			deliveryDate := dateOnly(s.clock.Now())
			if input.DeliveryDate != nil {
				deliveryDate = dateOnly(*input.DeliveryDate)
			}
			add("delivery_date", deliveryDate)
		}
	} else if input.DeliveryDate != nil {
		add("delivery_date", dateOnly(*input.DeliveryDate))
	}

	if len(set) > 0 {
		args = append(args, shipmentID)
		query := fmt.Sprintf("UPDATE shipments SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update shipment %d: %w", shipmentID, err)
		}
	}

	if delivered {
		if err := transitionOrderTx(ctx, tx, orderID, OrderDelivered); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit shipment update: %w", err)
	}
	return s.GetShipment(ctx, shipmentID)
}

const shipmentSelect = `
	SELECT sh.id, sh.order_id, o.customer_name, sh.tracking_number, sh.carrier, sh.status,
	       sh.dispatch_date, sh.delivery_date, sh.remarks, sh.created_at
	FROM shipments sh
	JOIN orders o ON o.id = sh.order_id`

func scanShipment(row pgx.Row, sh *Shipment) error {
	return row.Scan(&sh.ID, &sh.OrderID, &sh.CustomerName, &sh.TrackingNumber, &sh.Carrier, &sh.Status,
		&sh.DispatchDate, &sh.DeliveryDate, &sh.Remarks, &sh.CreatedAt)
}

func (s *shipmentService) GetShipment(ctx context.Context, shipmentID int) (*Shipment, error) {
	var sh Shipment
	if err := scanShipment(s.pool.QueryRow(ctx, shipmentSelect+" WHERE sh.id = $1", shipmentID), &sh); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("shipment %d", shipmentID)
		}
		return nil, fmt.Errorf("get shipment %d: %w", shipmentID, err)
	}
	return &sh, nil
}

func (s *shipmentService) ListShipments(ctx context.Context, filter ShipmentFilter) ([]Shipment, error) {
	query := shipmentSelect
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += " WHERE sh.status = $1"
	}
	query += " ORDER BY sh.dispatch_date DESC, sh.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		var sh Shipment
		if err := scanShipment(rows, &sh); err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		shipments = append(shipments, sh)
	}
	return shipments, rows.Err()
}
