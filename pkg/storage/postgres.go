package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: dsn,
	}

	// Run migrations
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations
func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveRun persists one analysis run with every per-step recommendation of
// every base, all inside one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, set *models.RecommendationSet, artifactPath string) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, task, margin_pct, days, generated_at, artifact_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, set.Task, set.MarginPct, set.Days, set.GeneratedAt, artifactPath, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis run: %w", err)
	}

	for base, recs := range set.ByBase {
		for _, rec := range recs {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO step_recommendations (
					run_id, step, base,
					mem_raw_mb, mem_rounded_mb, mem_k8s, mem_coverage,
					cpu_raw_m, cpu_rounded_m, cpu_k8s, cpu_coverage,
					cluster_count
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			`, id, rec.Step, string(base),
				rec.Memory.RawValue, rec.Memory.RoundedValue, rec.Memory.Kubernetes, rec.Memory.Coverage,
				rec.CPU.RawValue, int64(rec.CPU.RoundedValue), rec.CPU.Kubernetes, rec.CPU.Coverage,
				rec.Memory.ClusterCount)
			if err != nil {
				return "", fmt.Errorf("failed to insert recommendation for step %s: %w", rec.Step, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit analysis run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs for a task, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, task string, limit int) ([]*models.AnalysisRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task, margin_pct, days, generated_at, artifact_path, created_at
		FROM analysis_runs
		WHERE task = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`, task, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AnalysisRun
	for rows.Next() {
		run := &models.AnalysisRun{}
		if err := rows.Scan(&run.ID, &run.Task, &run.MarginPct, &run.Days,
			&run.GeneratedAt, &run.Artifact, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunRecommendations returns the per-step recommendations stored for one
// run under one base statistic.
func (s *PostgresStore) RunRecommendations(ctx context.Context, runID string, base models.Base) ([]models.StepRecommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step,
		       mem_raw_mb, mem_rounded_mb, mem_k8s, mem_coverage,
		       cpu_raw_m, cpu_rounded_m, cpu_k8s, cpu_coverage,
		       cluster_count
		FROM step_recommendations
		WHERE run_id = $1 AND base = $2
		ORDER BY id
	`, runID, string(base))
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.StepRecommendation
	for rows.Next() {
		var rec models.StepRecommendation
		var cpuRounded int64
		var clusterCount int
		err := rows.Scan(&rec.Step,
			&rec.Memory.RawValue, &rec.Memory.RoundedValue, &rec.Memory.Kubernetes, &rec.Memory.Coverage,
			&rec.CPU.RawValue, &cpuRounded, &rec.CPU.Kubernetes, &rec.CPU.Coverage,
			&clusterCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.Memory.Kind = models.KindMemory
		rec.CPU.Kind = models.KindCPU
		rec.Memory.Base = base
		rec.CPU.Base = base
		rec.CPU.RoundedValue = float64(cpuRounded)
		rec.Memory.ClusterCount = clusterCount
		rec.CPU.ClusterCount = clusterCount
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
