package driver

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eos-shipper/internal/enrich"
)

// Sink persists enriched results as a consumer processes them. PostgresSink
// is the reference implementation; callers needing a different store only
// need to satisfy this interface.
type Sink interface {
	// SaveCheckpoint records the last block number fully processed, so a
	// restarted consumer can resume from it.
	SaveCheckpoint(ctx context.Context, service string, blockNum uint32) error
	// LastCheckpoint returns the last saved block number for service, or 0
	// if none has been recorded yet.
	LastCheckpoint(ctx context.Context, service string) (uint32, error)
	// SaveBlockResult persists one enriched blocks result.
	SaveBlockResult(ctx context.Context, blockNum uint32, result *enrich.RichResult) error
	Close()
}

// PostgresSink stores checkpoints and block results in Postgres via pgx,
// following the same pool-configuration and checkpoint-table conventions
// as the teacher's repository.Repository.
type PostgresSink struct {
	db *pgxpool.Pool
}

// NewPostgresSink opens a pool against dbURL. DB_MAX_OPEN_CONNS and
// DB_MAX_IDLE_CONNS environment variables, if set, override pgx's pool
// defaults exactly as the teacher's NewRepository does.
func NewPostgresSink(ctx context.Context, dbURL string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("driver: parse db url: %w", err)
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConns = int32(n)
		}
	}
	if v := os.Getenv("DB_MAX_IDLE_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MinConns = int32(n)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("driver: connect to database: %w", err)
	}
	return &PostgresSink{db: pool}, nil
}

// Migrate executes the schema script at schemaPath in full, the same
// whole-file approach the teacher's Repository.Migrate uses.
func (s *PostgresSink) Migrate(ctx context.Context, schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("driver: read schema file: %w", err)
	}
	if _, err := s.db.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("driver: execute schema: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() { s.db.Close() }

func (s *PostgresSink) LastCheckpoint(ctx context.Context, service string) (uint32, error) {
	var blockNum uint32
	err := s.db.QueryRow(ctx,
		"SELECT last_block_num FROM ship.checkpoints WHERE service_name = $1", service,
	).Scan(&blockNum)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("driver: load checkpoint: %w", err)
	}
	return blockNum, nil
}

func (s *PostgresSink) SaveCheckpoint(ctx context.Context, service string, blockNum uint32) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ship.checkpoints (service_name, last_block_num, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (service_name) DO UPDATE SET last_block_num = $2, updated_at = now()
	`, service, blockNum)
	if err != nil {
		return fmt.Errorf("driver: save checkpoint: %w", err)
	}
	return nil
}

// SaveBlockResult records how many traces and table deltas an enriched
// block carried, plus any non-fatal decode warnings it accumulated. It
// deliberately stores a summary rather than the full block payload: a
// consumer wanting the raw data has it in-hand at the call site already.
func (s *PostgresSink) SaveBlockResult(ctx context.Context, blockNum uint32, result *enrich.RichResult) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ship.block_results (block_num, trace_count, delta_count, warning_count, received_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (block_num) DO UPDATE SET
			trace_count = $2, delta_count = $3, warning_count = $4, received_at = now()
	`, blockNum, len(result.Traces), len(result.Deltas), len(result.Warnings))
	if err != nil {
		return fmt.Errorf("driver: save block result: %w", err)
	}
	return nil
}
