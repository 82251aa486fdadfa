package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"zapis/internal/models"
)

// SeedServices загружает каталог услуг из конфигурации в БД и кэш.
// Существующие строки обновляются по ID.
func (db *DB) SeedServices(ctx context.Context, services []models.Service) error {
	query := `
        INSERT INTO services (id, name, description, duration_minutes, price_cents, sort_order, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            description = excluded.description,
            duration_minutes = excluded.duration_minutes,
            price_cents = excluded.price_cents,
            sort_order = excluded.sort_order,
            is_active = excluded.is_active,
            updated_at = excluded.updated_at
    `

	now := time.Now()
	for i := range services {
		svc := &services[i]
		if _, err := db.ExecContext(ctx, query,
			svc.ID, svc.Name, svc.Description, svc.DurationMinutes,
			svc.PriceCents, svc.SortOrder, svc.IsActive, now, now,
		); err != nil {
			return fmt.Errorf("failed to seed service %d: %w", svc.ID, err)
		}
	}

	db.mu.Lock()
	db.servicesCache = make(map[int64]models.Service, len(services))
	for _, svc := range services {
		db.servicesCache[svc.ID] = svc
	}
	db.mu.Unlock()

	return nil
}

// GetServiceByID возвращает услугу из кэша, при промахе — из БД.
func (db *DB) GetServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	db.mu.RLock()
	svc, ok := db.servicesCache[id]
	db.mu.RUnlock()
	if ok {
		return &svc, nil
	}

	query := `SELECT id, name, description, duration_minutes, price_cents, sort_order, is_active, created_at, updated_at
              FROM services WHERE id = ?`
	var s models.Service
	err := db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.DurationMinutes,
		&s.PriceCents, &s.SortOrder, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, ErrNotFound
	}

	db.mu.Lock()
	db.servicesCache[s.ID] = s
	db.mu.Unlock()

	return &s, nil
}

// GetActiveServices возвращает активные услуги в порядке сортировки.
func (db *DB) GetActiveServices(ctx context.Context) ([]models.Service, error) {
	query := `SELECT id, name, description, duration_minutes, price_cents, sort_order, is_active, created_at, updated_at
              FROM services WHERE is_active = 1 ORDER BY sort_order, id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Description, &s.DurationMinutes,
			&s.PriceCents, &s.SortOrder, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}

	return services, rows.Err()
}

// CachedServices возвращает снимок кэша услуг (для экспорта и API).
func (db *DB) CachedServices() []models.Service {
	db.mu.RLock()
	defer db.mu.RUnlock()

	services := make([]models.Service, 0, len(db.servicesCache))
	for _, svc := range db.servicesCache {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool {
		if services[i].SortOrder == services[j].SortOrder {
			return services[i].ID < services[j].ID
		}
		return services[i].SortOrder < services[j].SortOrder
	})
	return services
}
