package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/boostmart/internal/model"
)

// ListOrders возвращает все заказы вместе с позициями, перепиской и историей отслеживания.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, customer_name, customer_email, status, payment_status,
		        subtotal, tax, total_amount, assigned_fulfiller, progress, notes, created_at, updated_at
		 FROM orders
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var (
		res   []model.Order
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			o                    model.Order
			status, payment      string
			subtotal, tax, total int64
		)
		if err := rows.Scan(&o.ID, &o.Customer.UserID, &o.Customer.Name, &o.Customer.Email, &status, &payment,
			&subtotal, &tax, &total, &o.AssignedFulfiller, &o.Progress, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		o.Status = model.OrderStatus(status)
		o.PaymentStatus = model.PaymentStatus(payment)
		o.Subtotal = fromCents(subtotal)
		o.Tax = fromCents(tax)
		o.TotalAmount = fromCents(total)

		index[o.ID] = len(res)
		res = append(res, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(res) == 0 {
		return res, nil
	}

	if err := r.loadItems(ctx, res, index); err != nil {
		return nil, err
	}
	if err := r.loadMessages(ctx, res, index); err != nil {
		return nil, err
	}
	if err := r.loadTracking(ctx, res, index); err != nil {
		return nil, err
	}

	return res, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orders []model.Order, index map[string]int) error {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, service_id, name, price, quantity FROM order_items ORDER BY order_id, position`,
	)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			li      model.LineItem
			priceC  int64
		)
		if err := rows.Scan(&orderID, &li.ServiceID, &li.Name, &priceC, &li.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		li.Price = fromCents(priceC)

		if i, ok := index[orderID]; ok {
			orders[i].LineItems = append(orders[i].LineItems, li)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) loadMessages(ctx context.Context, orders []model.Order, index map[string]int) error {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, id, from_role, body, is_read, created_at FROM order_messages ORDER BY order_id, seq`,
	)
	if err != nil {
		return fmt.Errorf("select order messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			from    string
			m       model.OrderMessage
		)
		if err := rows.Scan(&orderID, &m.ID, &from, &m.Body, &m.IsRead, &m.Timestamp); err != nil {
			return fmt.Errorf("scan order message: %w", err)
		}
		m.From = model.Sender(from)

		if i, ok := index[orderID]; ok {
			orders[i].Messages = append(orders[i].Messages, m)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) loadTracking(ctx context.Context, orders []model.Order, index map[string]int) error {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, status, description, created_at FROM order_tracking_events ORDER BY order_id, seq`,
	)
	if err != nil {
		return fmt.Errorf("select tracking events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			e       model.TrackingEvent
		)
		if err := rows.Scan(&orderID, &e.Status, &e.Description, &e.Timestamp); err != nil {
			return fmt.Errorf("scan tracking event: %w", err)
		}

		if i, ok := index[orderID]; ok {
			orders[i].TrackingEvents = append(orders[i].TrackingEvents, e)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

// InsertOrder сохраняет заказ со всеми позициями и событиями в одной транзакции.
func (r *PostgresRepository) InsertOrder(ctx context.Context, o model.Order) error {
	return r.withRetry(ctx, func() error {
		return r.insertOrder(ctx, o)
	})
}

func (r *PostgresRepository) insertOrder(ctx context.Context, o model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, customer_name, customer_email, status, payment_status,
		                     subtotal, tax, total_amount, assigned_fulfiller, progress, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.Customer.UserID, o.Customer.Name, o.Customer.Email, string(o.Status), string(o.PaymentStatus),
		toCents(o.Subtotal), toCents(o.Tax), toCents(o.TotalAmount), o.AssignedFulfiller, o.Progress, o.Notes,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s", ErrDuplicate, o.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, li := range o.LineItems {
		batch.Queue(
			`INSERT INTO order_items (order_id, position, service_id, name, price, quantity) VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, i, li.ServiceID, li.Name, toCents(li.Price), li.Quantity,
		)
	}
	for _, m := range o.Messages {
		batch.Queue(
			`INSERT INTO order_messages (id, order_id, from_role, body, is_read, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, o.ID, string(m.From), m.Body, m.IsRead, m.Timestamp,
		)
	}
	for i, e := range o.TrackingEvents {
		batch.Queue(
			`INSERT INTO order_tracking_events (order_id, seq, status, description, created_at) VALUES ($1, $2, $3, $4, $5)`,
			o.ID, i, e.Status, e.Description, e.Timestamp,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateOrderStatus обновляет статус и прогресс заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, progress *int, updatedAt time.Time) error {
	return r.updateOrder(ctx, "update order status",
		`UPDATE orders SET status = $2, progress = $3, updated_at = $4 WHERE id = $1`,
		id, string(status), progress, updatedAt,
	)
}

// UpdatePaymentStatus обновляет статус оплаты заказа.
func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus, updatedAt time.Time) error {
	return r.updateOrder(ctx, "update payment status",
		`UPDATE orders SET payment_status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), updatedAt,
	)
}

// UpdateFulfiller назначает исполнителя заказа.
func (r *PostgresRepository) UpdateFulfiller(ctx context.Context, id, name string, updatedAt time.Time) error {
	return r.updateOrder(ctx, "update fulfiller",
		`UPDATE orders SET assigned_fulfiller = $2, updated_at = $3 WHERE id = $1`,
		id, name, updatedAt,
	)
}

func (r *PostgresRepository) updateOrder(ctx context.Context, op, query string, id string, args ...any) error {
	return r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx, query, append([]any{id}, args...)...)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
		}
		return nil
	})
}

// InsertMessage добавляет сообщение в переписку по заказу.
func (r *PostgresRepository) InsertMessage(ctx context.Context, orderID string, m model.OrderMessage, updatedAt time.Time) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := touchOrder(ctx, tx, orderID, updatedAt); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_messages (id, order_id, from_role, body, is_read, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, orderID, string(m.From), m.Body, m.IsRead, m.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// MarkMessageRead помечает сообщение прочитанным.
func (r *PostgresRepository) MarkMessageRead(ctx context.Context, orderID, messageID string) error {
	return r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE order_messages SET is_read = TRUE WHERE order_id = $1 AND id = $2`,
			orderID, messageID,
		)
		if err != nil {
			return fmt.Errorf("mark message read: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", model.ErrMessageNotFound, messageID)
		}
		return nil
	})
}

// InsertTrackingEvent добавляет событие в историю отслеживания под порядковым номером seq.
func (r *PostgresRepository) InsertTrackingEvent(ctx context.Context, orderID string, seq int, e model.TrackingEvent, updatedAt time.Time) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := touchOrder(ctx, tx, orderID, updatedAt); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO order_tracking_events (order_id, seq, status, description, created_at) VALUES ($1, $2, $3, $4, $5)`,
			orderID, seq, e.Status, e.Description, e.Timestamp,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: tracking event %s/%d", ErrDuplicate, orderID, seq)
			}
			return fmt.Errorf("insert tracking event: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

func touchOrder(ctx context.Context, tx pgx.Tx, orderID string, updatedAt time.Time) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET updated_at = $2 WHERE id = $1`, orderID, updatedAt)
	if err != nil {
		return fmt.Errorf("touch order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", model.ErrOrderNotFound, orderID)
	}
	return nil
}
