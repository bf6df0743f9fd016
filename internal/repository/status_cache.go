package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// Префикс ключей конечных статусов
	statusKeyPrefix = "payment_status:"

	// DefaultStatusTTL время жизни записи в кеше
	DefaultStatusTTL = 24 * time.Hour
)

// RedisStatusCache кеширует конечные статусы платежей в Redis
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisStatusCache подключается к Redis. Ping повторяется с экспоненциальной
// задержкой не дольше maxWait.
func NewRedisStatusCache(addr, password string, db int, ttl, maxWait time.Duration, log *logger.Logger) (*RedisStatusCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxWait

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}
	notify := func(err error, next time.Duration) {
		log.Warnw("Redis is not reachable yet, retrying", "addr", addr, "error", err, "retry_in", next)
	}

	if err := backoff.RetryNotify(ping, bo, notify); err != nil {
		_ = client.Close()
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return NewRedisStatusCacheFromClient(client, ttl, log), nil
}

// NewRedisStatusCacheFromClient использует уже созданный клиент
func NewRedisStatusCacheFromClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisStatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &RedisStatusCache{client: client, ttl: ttl, log: log}
}

// Close закрывает соединение с Redis
func (r *RedisStatusCache) Close() error {
	return r.client.Close()
}

// Ping проверяет соединение, используется в /health
func (r *RedisStatusCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get возвращает статус или domain.ErrCacheMiss
func (r *RedisStatusCache) Get(ctx context.Context, pid string) (domain.PaymentStatus, error) {
	val, err := r.client.Get(ctx, statusKeyPrefix+pid).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached status: %w", err)
	}
	return domain.PaymentStatus(val), nil
}

// Store записывает статус, только если его еще нет (SETNX).
func (r *RedisStatusCache) Store(ctx context.Context, pid string, status domain.PaymentStatus) (bool, error) {
	stored, err := r.client.SetNX(ctx, statusKeyPrefix+pid, string(status), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to cache status: %w", err)
	}
	if stored {
		r.log.Debugw("Terminal status cached", "pid", pid, "status", status)
	}
	return stored, nil
}

type memoryEntry struct {
	status    domain.PaymentStatus
	expiresAt time.Time
}

// MemoryStatusCache кеш в памяти процесса, когда Redis не настроен.
// Просроченные записи удаляются при чтении и при записи, не чаще раза в ttl.
type MemoryStatusCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
	entries   map[string]memoryEntry
}

// NewMemoryStatusCache создает кеш в памяти
func NewMemoryStatusCache(ttl time.Duration) *MemoryStatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &MemoryStatusCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get возвращает статус или domain.ErrCacheMiss
func (m *MemoryStatusCache) Get(_ context.Context, pid string) (domain.PaymentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pid]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, pid)
		return "", domain.ErrCacheMiss
	}
	return e.status, nil
}

// Store записывает статус, только если живой записи еще нет
func (m *MemoryStatusCache) Store(_ context.Context, pid string, status domain.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	if e, ok := m.entries[pid]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	m.entries[pid] = memoryEntry{status: status, expiresAt: now.Add(m.ttl)}
	return true, nil
}

// size число записей, включая еще не удаленные просроченные
func (m *MemoryStatusCache) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStatusCache) sweep(now time.Time) {
	if now.Before(m.nextSweep) {
		return
	}
	for pid, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, pid)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}
