package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zapis/internal/models"
)

func encodeRanges(ranges []models.TimeRange) (string, error) {
	if ranges == nil {
		ranges = []models.TimeRange{}
	}
	data, err := json.Marshal(ranges)
	if err != nil {
		return "", fmt.Errorf("failed to encode ranges: %w", err)
	}
	return string(data), nil
}

func decodeRanges(raw string) ([]models.TimeRange, error) {
	if raw == "" {
		return nil, nil
	}
	var ranges []models.TimeRange
	if err := json.Unmarshal([]byte(raw), &ranges); err != nil {
		return nil, fmt.Errorf("failed to decode ranges: %w", err)
	}
	if len(ranges) == 0 {
		return nil, nil
	}
	return ranges, nil
}

// GetWeeklySchedule возвращает недельное расписание целиком.
func (db *DB) GetWeeklySchedule(ctx context.Context) (models.WeeklySchedule, error) {
	query := `SELECT weekday, available, ranges, breaks FROM work_schedule`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly schedule: %w", err)
	}
	defer rows.Close()

	weekly := make(models.WeeklySchedule)
	for rows.Next() {
		var (
			weekday            int
			available          bool
			rawRanges, rawBrks string
		)
		if err := rows.Scan(&weekday, &available, &rawRanges, &rawBrks); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}

		ranges, err := decodeRanges(rawRanges)
		if err != nil {
			return nil, err
		}
		breaks, err := decodeRanges(rawBrks)
		if err != nil {
			return nil, err
		}

		weekly[weekday] = models.DaySchedule{Available: available, Ranges: ranges, Breaks: breaks}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return weekly, nil
}

// UpsertWeekday записывает расписание одного дня недели.
func (db *DB) UpsertWeekday(ctx context.Context, weekday int, day models.DaySchedule) error {
	if weekday < 0 || weekday > 6 {
		return fmt.Errorf("weekday out of range: %d", weekday)
	}

	ranges, err := encodeRanges(day.Ranges)
	if err != nil {
		return err
	}
	breaks, err := encodeRanges(day.Breaks)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO work_schedule (weekday, available, ranges, breaks, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(weekday) DO UPDATE SET
            available = excluded.available,
            ranges = excluded.ranges,
            breaks = excluded.breaks,
            updated_at = excluded.updated_at
    `
	if _, err := db.ExecContext(ctx, query, weekday, day.Available, ranges, breaks, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert weekday %d: %w", weekday, err)
	}
	return nil
}

// GetException возвращает исключение на дату или ErrNotFound.
func (db *DB) GetException(ctx context.Context, date string) (*models.ScheduleException, error) {
	query := `SELECT date, available, ranges, breaks FROM schedule_exceptions WHERE date = ?`

	var (
		exc                models.ScheduleException
		rawRanges, rawBrks string
	)
	err := db.QueryRowContext(ctx, query, date).Scan(&exc.Date, &exc.Available, &rawRanges, &rawBrks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exception: %w", err)
	}

	if exc.Ranges, err = decodeRanges(rawRanges); err != nil {
		return nil, err
	}
	if exc.Breaks, err = decodeRanges(rawBrks); err != nil {
		return nil, err
	}

	return &exc, nil
}

// UpsertException записывает исключение; повторная запись на ту же дату
// полностью заменяет предыдущую.
func (db *DB) UpsertException(ctx context.Context, exc *models.ScheduleException) error {
	if _, err := time.Parse(models.DateLayout, exc.Date); err != nil {
		return fmt.Errorf("invalid exception date %q: %w", exc.Date, err)
	}

	ranges, err := encodeRanges(exc.Ranges)
	if err != nil {
		return err
	}
	breaks, err := encodeRanges(exc.Breaks)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO schedule_exceptions (date, available, ranges, breaks, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(date) DO UPDATE SET
            available = excluded.available,
            ranges = excluded.ranges,
            breaks = excluded.breaks
    `
	if _, err := db.ExecContext(ctx, query, exc.Date, exc.Available, ranges, breaks, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert exception: %w", err)
	}
	return nil
}

// DeleteException удаляет исключение на дату.
func (db *DB) DeleteException(ctx context.Context, date string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM schedule_exceptions WHERE date = ?`, date)
	if err != nil {
		return fmt.Errorf("failed to delete exception: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExceptions возвращает исключения в диапазоне дат включительно.
func (db *DB) ListExceptions(ctx context.Context, from, to string) ([]models.ScheduleException, error) {
	query := `SELECT date, available, ranges, breaks FROM schedule_exceptions
              WHERE date BETWEEN ? AND ? ORDER BY date`
	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []models.ScheduleException
	for rows.Next() {
		var (
			exc                models.ScheduleException
			rawRanges, rawBrks string
		)
		if err := rows.Scan(&exc.Date, &exc.Available, &rawRanges, &rawBrks); err != nil {
			return nil, fmt.Errorf("failed to scan exception: %w", err)
		}
		if exc.Ranges, err = decodeRanges(rawRanges); err != nil {
			return nil, err
		}
		if exc.Breaks, err = decodeRanges(rawBrks); err != nil {
			return nil, err
		}
		exceptions = append(exceptions, exc)
	}

	return exceptions, rows.Err()
}
