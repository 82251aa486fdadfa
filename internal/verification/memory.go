package verification

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger держит коды в памяти процесса. Используется как fallback,
// когда Redis недоступен: коды переживают только время жизни процесса.
type MemoryLedger struct {
	codes      sync.Map
	rateLimits sync.Map
	codeLength int
	ttl        time.Duration
}

func NewMemoryLedger(codeLength int, ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{
		codeLength: codeLength,
		ttl:        ttl,
	}
}

type codeEntry struct {
	code      string
	expiresAt time.Time
}

func (m *MemoryLedger) Issue(ctx context.Context, phone string) (string, error) {
	code, err := RandomNumericCode(m.codeLength)
	if err != nil {
		return "", err
	}

	m.codes.Store(phone, &codeEntry{
		code:      code,
		expiresAt: time.Now().Add(m.ttl),
	})
	return code, nil
}

func (m *MemoryLedger) Consume(ctx context.Context, phone, code string) (bool, error) {
	val, ok := m.codes.Load(phone)
	if !ok {
		return false, nil
	}

	entry := val.(*codeEntry)
	if time.Now().After(entry.expiresAt) {
		m.codes.Delete(phone)
		return false, nil
	}
	if entry.code != code {
		return false, nil
	}

	m.codes.Delete(phone)
	return true, nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (m *MemoryLedger) CheckRateLimit(ctx context.Context, phone string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := m.rateLimits.Load(phone)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	m.rateLimits.Store(phone, entry)
	return entry.count <= limit, nil
}
