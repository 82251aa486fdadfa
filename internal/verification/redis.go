package verification

import (
	"context"
	"fmt"
	"time"

	"zapis/internal/config"

	"github.com/redis/go-redis/v9"
)

type RedisLedger struct {
	client     *redis.Client
	codeLength int
	ttl        time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisLedger(client *redis.Client, codeLength int, ttl time.Duration) *RedisLedger {
	return &RedisLedger{
		client:     client,
		codeLength: codeLength,
		ttl:        ttl,
	}
}

// Issue генерирует код и записывает его с TTL. Повторный вызов для того
// же телефона перезаписывает предыдущий код: действителен только
// последний.
func (r *RedisLedger) Issue(ctx context.Context, phone string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}

	code, err := RandomNumericCode(r.codeLength)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("verification_code:%s", phone)
	if err := r.client.Set(ctx, key, code, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	return code, nil
}

// Consume сверяет код и удаляет его при совпадении. Неудачная попытка
// не расходует код: клиент может повторить ввод.
func (r *RedisLedger) Consume(ctx context.Context, phone, code string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("verification_code:%s", phone)
	stored, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get verification code: %w", err)
	}

	if stored != code {
		return false, nil
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("failed to delete verification code: %w", err)
	}
	return true, nil
}

func (r *RedisLedger) CheckRateLimit(ctx context.Context, phone string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("sms_limit:%s", phone)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
