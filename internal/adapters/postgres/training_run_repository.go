package postgres

import (
	"context"
	"fmt"
	"time"

	"price-estimation-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTrainingRunsTable = `
	CREATE TABLE IF NOT EXISTS model_training_runs (
		id           UUID PRIMARY KEY,
		trained_at   TIMESTAMPTZ NOT NULL,
		source       TEXT NOT NULL,
		raw_rows     INTEGER NOT NULL,
		cleaned_rows INTEGER NOT NULL,
		train_rows   INTEGER NOT NULL,
		test_rows    INTEGER NOT NULL,
		r2           DOUBLE PRECISION NOT NULL,
		mae          DOUBLE PRECISION NOT NULL,
		rmse         DOUBLE PRECISION NOT NULL,
		binning      TEXT NOT NULL,
		locations    INTEGER NOT NULL
	)`

const insertTrainingRun = `
	INSERT INTO model_training_runs
		(id, trained_at, source, raw_rows, cleaned_rows, train_rows, test_rows, r2, mae, rmse, binning, locations)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING`

const selectRecentTrainingRuns = `
	SELECT id, trained_at, source, raw_rows, cleaned_rows, train_rows, test_rows, r2, mae, rmse, binning, locations
	FROM model_training_runs
	ORDER BY trained_at DESC
	LIMIT $1`

// TrainingRunRepository хранит историю обучений в model_training_runs
type TrainingRunRepository struct {
	pool *pgxpool.Pool
}

func NewTrainingRunRepository(pool *pgxpool.Pool) (*TrainingRunRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &TrainingRunRepository{pool: pool}, nil
}

// EnsureSchema создает таблицу, если ее нет
func (r *TrainingRunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTrainingRunsTable); err != nil {
		return fmt.Errorf("failed to create model_training_runs: %w", err)
	}
	return nil
}

func (r *TrainingRunRepository) Save(ctx context.Context, run domain.TrainingRun) error {
	_, err := r.pool.Exec(ctx, insertTrainingRun, trainingRunArgs(run)...)
	if err != nil {
		return fmt.Errorf("failed to insert training run %s: %w", run.ID, err)
	}
	return nil
}

func (r *TrainingRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if limit <= 0 {
		return []domain.TrainingRun{}, nil
	}

	rows, err := r.pool.Query(ctx, selectRecentTrainingRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, scanTrainingRun)
	if err != nil {
		return nil, fmt.Errorf("failed to read training runs: %w", err)
	}
	return runs, nil
}

func trainingRunArgs(run domain.TrainingRun) []interface{} {
	return []interface{}{
		run.ID,
		run.TrainedAt,
		run.Source,
		run.RawRows,
		run.CleanedRows,
		run.TrainRows,
		run.TestRows,
		run.Metrics.R2,
		run.Metrics.MAE,
		run.Metrics.RMSE,
		string(run.Binning),
		run.Locations,
	}
}

func scanTrainingRun(row pgx.CollectableRow) (domain.TrainingRun, error) {
	var (
		run       domain.TrainingRun
		id        uuid.UUID
		trainedAt time.Time
		binning   string
	)
	err := row.Scan(
		&id,
		&trainedAt,
		&run.Source,
		&run.RawRows,
		&run.CleanedRows,
		&run.TrainRows,
		&run.TestRows,
		&run.Metrics.R2,
		&run.Metrics.MAE,
		&run.Metrics.RMSE,
		&binning,
		&run.Locations,
	)
	if err != nil {
		return domain.TrainingRun{}, err
	}
	run.ID = id
	run.TrainedAt = trainedAt.UTC()
	run.Binning = domain.BinningMode(binning)
	return run, nil
}
