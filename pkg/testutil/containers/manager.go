//go:build integration

// Package containers starts the backing services used by integration tests.
// Each container is started once per test binary and shared by every suite in it.
package containers

import (
	"sync"
	"testing"
)

// Manager lazily starts and hands out shared containers.
type Manager struct {
	pgOnce sync.Once
	pg     *PostgresContainer
	pgErr  error

	redisOnce sync.Once
	redis     *RedisContainer
	redisErr  error

	kafkaOnce sync.Once
	kafka     *RedpandaContainer
	kafkaErr  error
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() { manager = &Manager{} })
	return manager
}

// GetPostgres starts (once) a migrated PostgreSQL container.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() { m.pg, m.pgErr = startPostgres() })
	if m.pgErr != nil {
		t.Fatalf("postgres container: %v", m.pgErr)
	}
	return m.pg
}

// GetRedis starts (once) a Redis container.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() { m.redis, m.redisErr = startRedis() })
	if m.redisErr != nil {
		t.Fatalf("redis container: %v", m.redisErr)
	}
	return m.redis
}

// GetRedpanda starts (once) a Kafka-compatible Redpanda broker.
func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.kafkaOnce.Do(func() { m.kafka, m.kafkaErr = startRedpanda() })
	if m.kafkaErr != nil {
		t.Fatalf("redpanda container: %v", m.kafkaErr)
	}
	return m.kafka
}
