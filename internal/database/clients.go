package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zapis/internal/models"
)

// GetClientByPhone возвращает клиента по номеру телефона или ErrNotFound.
func (db *DB) GetClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	query := `SELECT id, name, phone, created_at, updated_at FROM clients WHERE phone = ?`

	var client models.Client
	err := db.QueryRowContext(ctx, query, phone).Scan(
		&client.ID,
		&client.Name,
		&client.Phone,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by phone: %w", err)
	}
	return &client, nil
}

// CreateClient создает клиента. Номер телефона уникален.
func (db *DB) CreateClient(ctx context.Context, client *models.Client) error {
	query := `INSERT INTO clients (name, phone, created_at, updated_at) VALUES (?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, client.Name, client.Phone, now, now)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	client.ID = id
	client.CreatedAt = now
	client.UpdatedAt = now
	return nil
}

// UpdateClientName обновляет имя клиента (правится персоналом после
// автосоздания из публичной записи).
func (db *DB) UpdateClientName(ctx context.Context, id int64, name string) error {
	query := `UPDATE clients SET name = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, name, time.Now(), id)
	return err
}
