package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zapis/internal/models"
	"zapis/internal/timeutil"
)

const appointmentColumns = `
    a.id, a.public_id, a.client_id, COALESCE(c.name, ''), COALESCE(c.phone, ''),
    a.service_id, a.service_name, a.starts_at_unix, a.duration_minutes,
    a.price_cents, a.status, a.notes, a.created_at, a.updated_at, a.version`

func (db *DB) scanAppointment(scan func(dest ...any) error) (*models.Appointment, error) {
	var (
		appt      models.Appointment
		startUnix int64
	)
	err := scan(
		&appt.ID,
		&appt.PublicID,
		&appt.ClientID,
		&appt.ClientName,
		&appt.Phone,
		&appt.ServiceID,
		&appt.ServiceName,
		&startUnix,
		&appt.DurationMinutes,
		&appt.PriceCents,
		&appt.Status,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
		&appt.Version,
	)
	if err != nil {
		return nil, err
	}
	appt.StartsAt = time.Unix(startUnix, 0).In(db.loc)
	return &appt, nil
}

// CreateAppointmentGuarded вставляет запись, повторно проверяя пересечения
// внутри одной транзакции. Транзакция открывается в режиме immediate,
// поэтому пара проверка+вставка сериализуется с конкурирующими commit.
func (db *DB) CreateAppointmentGuarded(ctx context.Context, appt *models.Appointment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	start := appt.StartsAt.Unix()
	end := appt.EndsAt().Unix()

	// 1. Проверка пересечений внутри транзакции (полуинтервалы)
	var overlapping int
	queryCount := `
        SELECT COUNT(*) FROM appointments
        WHERE status != ?
          AND starts_at_unix < ?
          AND starts_at_unix + duration_minutes * 60 > ?`
	err = tx.QueryRowContext(ctx, queryCount, models.StatusCancelled, end, start).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if overlapping > 0 {
		return ErrSlotTaken
	}

	// 2. Вставка записи
	queryInsert := `
        INSERT INTO appointments (
            public_id, client_id, service_id, service_name, starts_at_unix,
            duration_minutes, price_cents, status, notes, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		appt.PublicID,
		appt.ClientID,
		appt.ServiceID,
		appt.ServiceName,
		start,
		appt.DurationMinutes,
		appt.PriceCents,
		appt.Status,
		appt.Notes,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointment: %w", err)
	}

	appt.ID = id
	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.Version = 1
	return nil
}

// GetAppointment возвращает запись по ID.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
        FROM appointments a LEFT JOIN clients c ON c.id = a.client_id
        WHERE a.id = ?`

	appt, err := db.scanAppointment(db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// GetAppointmentsForDay возвращает все записи на календарный день даты
// (в бизнес-часовом поясе), включая отменённые.
func (db *DB) GetAppointmentsForDay(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	from, to := timeutil.DayBounds(date, db.loc)
	return db.GetAppointmentsByRange(ctx, from, to)
}

// GetAppointmentsByRange возвращает записи в полуинтервале [from, to).
func (db *DB) GetAppointmentsByRange(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	query := `SELECT` + appointmentColumns + `
        FROM appointments a LEFT JOIN clients c ON c.id = a.client_id
        WHERE a.starts_at_unix >= ? AND a.starts_at_unix < ?
        ORDER BY a.starts_at_unix, a.created_at`

	rows, err := db.QueryContext(ctx, query, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get appointments: %w", err)
	}
	defer rows.Close()

	var appts []models.Appointment
	for rows.Next() {
		appt, err := db.scanAppointment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, *appt)
	}

	return appts, rows.Err()
}

// UpdateAppointmentStatusWithVersion обновляет статус с оптимистической
// блокировкой: при устаревшей версии возвращает ErrVersionConflict.
func (db *DB) UpdateAppointmentStatusWithVersion(ctx context.Context, id, version int64, status string) error {
	if !models.ValidStatuses[status] {
		return fmt.Errorf("invalid appointment status: %q", status)
	}

	query := `UPDATE appointments SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Либо записи нет, либо версия устарела
		var exists int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}
