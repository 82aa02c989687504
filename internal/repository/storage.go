package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/AlekseyZapadovnikov/review-scheduler/conf"

	"github.com/codeGROOVE-dev/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Параметры повторных попыток при проверке соединения с базой.
const (
	pingAttempts     = 5
	pingInitialDelay = 200 * time.Millisecond
	pingMaxDelay     = 3 * time.Second
)

// DBPool описывает минимальный интерфейс пула подключений к PostgreSQL.
// Все операции каталога — одиночные запросы, транзакции здесь не нужны.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Close()
}

// Storage инкапсулирует пул подключений и предоставляет его методам каталога.
type Storage struct {
	pool DBPool
}

// NewStorage создаёт пул подключений к PostgreSQL и проверяет соединение.
// Проверка выполняется с экспоненциальным бэкоффом: база могла ещё не подняться.
func NewStorage(ctx context.Context, cfg *conf.DbConf) (*Storage, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	err = retry.Do(
		func() error { return pool.Ping(ctx) },
		retry.Context(ctx),
		retry.Attempts(pingAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(pingInitialDelay),
		retry.MaxDelay(pingMaxDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool}, nil
}

// Close закрывает пул подключений, когда он больше не нужен.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
