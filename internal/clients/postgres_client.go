package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	DB *pgxpool.Pool
}

// NewPostgresClient opens a pool and pings it so a bad DSN fails at startup.
func NewPostgresClient(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("[PostgresClient] failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[PostgresClient] failed to ping PostgreSQL: %w", err)
	}

	var version string
	if err := pool.QueryRow(pingCtx, "SELECT version()").Scan(&version); err == nil {
		if len(version) > 50 {
			version = version[:50]
		}
		slog.Info("[PostgresClient] Connected to PostgreSQL",
			slog.String("version", version))
	}

	return &Postgres{DB: pool}, nil
}

func (p *Postgres) Close() {
	if p.DB != nil {
		p.DB.Close()
	}
}
