package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/boostmart/internal/model"
)

// ListServices возвращает все услуги, включая неактивные, в порядке создания.
func (r *PostgresRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, price, original_price, duration, difficulty, features,
		        active, popular, category, orders_count, created_at, updated_at
		 FROM services
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var res []model.Service
	for rows.Next() {
		var (
			s         model.Service
			priceC    int64
			originalC *int64
			category  string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &priceC, &originalC, &s.Duration, &s.Difficulty,
			&s.Features, &s.Active, &s.Popular, &category, &s.OrdersCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}

		s.Price = fromCents(priceC)
		if originalC != nil {
			v := fromCents(*originalC)
			s.OriginalPrice = &v
		}
		s.Category = model.Category(category)

		res = append(res, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// InsertService сохраняет новую услугу.
func (r *PostgresRepository) InsertService(ctx context.Context, s model.Service) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO services (id, title, description, price, original_price, duration, difficulty, features,
			                       active, popular, category, orders_count, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			s.ID, s.Title, s.Description, toCents(s.Price), originalCents(s), s.Duration, s.Difficulty,
			features(s), s.Active, s.Popular, string(s.Category), s.OrdersCount, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: service %s", ErrDuplicate, s.ID)
			}
			return fmt.Errorf("insert service: %w", err)
		}
		return nil
	})
}

// UpdateService перезаписывает редактируемые поля услуги.
func (r *PostgresRepository) UpdateService(ctx context.Context, s model.Service) error {
	return r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE services
			 SET title = $2, description = $3, price = $4, original_price = $5, duration = $6, difficulty = $7,
			     features = $8, active = $9, popular = $10, category = $11, updated_at = $12
			 WHERE id = $1`,
			s.ID, s.Title, s.Description, toCents(s.Price), originalCents(s), s.Duration, s.Difficulty,
			features(s), s.Active, s.Popular, string(s.Category), s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update service: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", model.ErrServiceNotFound, s.ID)
		}
		return nil
	})
}

// IncrementServiceOrders увеличивает счётчик заказов услуги.
func (r *PostgresRepository) IncrementServiceOrders(ctx context.Context, id string, n int64) error {
	return r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE services SET orders_count = orders_count + $2, updated_at = $3 WHERE id = $1`,
			id, n, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("increment service orders: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", model.ErrServiceNotFound, id)
		}
		return nil
	})
}

func originalCents(s model.Service) *int64 {
	if s.OriginalPrice == nil {
		return nil
	}
	c := toCents(*s.OriginalPrice)
	return &c
}

func features(s model.Service) []string {
	if s.Features == nil {
		return []string{}
	}
	return s.Features
}
