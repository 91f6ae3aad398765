// Package store persists agent snapshots and generation records to
// SQLite so runs can be inspected and resumed outside the engine.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/darwinfi/evolve-go/pkg/agent"
	"github.com/darwinfi/evolve-go/pkg/errors"
	"github.com/darwinfi/evolve-go/pkg/evolution"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id              TEXT PRIMARY KEY,
	generation      INTEGER NOT NULL,
	parent_ids      TEXT NOT NULL,
	strategy_params TEXT NOT NULL,
	metrics         TEXT NOT NULL,
	fitness         REAL,
	mutation_rate   REAL NOT NULL,
	is_elite        INTEGER NOT NULL,
	active          INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS generation_records (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	generation      INTEGER NOT NULL,
	timestamp       INTEGER NOT NULL,
	best_fitness    REAL NOT NULL,
	average_fitness REAL NOT NULL,
	population_size INTEGER NOT NULL,
	diversity       REAL NOT NULL,
	elapsed_seconds REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_agents_generation ON agents(generation);
`

// Store is a SQLite-backed persistence layer for evolution runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and initializes
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to open sqlite database")
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.Unknown, "failed to enable WAL mode")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.Unknown, "failed to initialize schema")
	}

	return &Store{db: db}, nil
}

// SaveAgent upserts an agent snapshot.
func (s *Store) SaveAgent(ctx context.Context, snap agent.Snapshot) error {
	parentIDs, err := json.Marshal(snap.ParentIDs)
	if err != nil {
		return errors.Wrap(err, errors.InvalidInput, "failed to encode parent ids")
	}
	params, err := json.Marshal(snap.StrategyParams)
	if err != nil {
		return errors.Wrap(err, errors.InvalidInput, "failed to encode strategy params")
	}
	metrics, err := json.Marshal(snap.Metrics)
	if err != nil {
		return errors.Wrap(err, errors.InvalidInput, "failed to encode metrics")
	}

	var fitness sql.NullFloat64
	if snap.Fitness != nil {
		fitness = sql.NullFloat64{Float64: *snap.Fitness, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, generation, parent_ids, strategy_params, metrics,
			fitness, mutation_rate, is_elite, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			generation = excluded.generation,
			parent_ids = excluded.parent_ids,
			strategy_params = excluded.strategy_params,
			metrics = excluded.metrics,
			fitness = excluded.fitness,
			mutation_rate = excluded.mutation_rate,
			is_elite = excluded.is_elite,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		snap.ID, snap.Generation, string(parentIDs), string(params), string(metrics),
		fitness, snap.MutationRate, snap.IsElite, snap.Active, time.Now().UnixNano())
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to save agent")
	}
	return nil
}

// LoadAgent fetches an agent snapshot by identifier.
func (s *Store) LoadAgent(ctx context.Context, id string) (agent.Snapshot, error) {
	var (
		snap      agent.Snapshot
		parentIDs string
		params    string
		metrics   string
		fitness   sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, generation, parent_ids, strategy_params, metrics,
			fitness, mutation_rate, is_elite, active
		FROM agents WHERE id = ?`, id).Scan(
		&snap.ID, &snap.Generation, &parentIDs, &params, &metrics,
		&fitness, &snap.MutationRate, &snap.IsElite, &snap.Active)
	if err == sql.ErrNoRows {
		return agent.Snapshot{}, errors.WithFields(
			errors.New(errors.ResourceNotFound, "agent not found"),
			errors.Fields{"id": id})
	}
	if err != nil {
		return agent.Snapshot{}, errors.Wrap(err, errors.Unknown, "failed to load agent")
	}

	if err := json.Unmarshal([]byte(parentIDs), &snap.ParentIDs); err != nil {
		return agent.Snapshot{}, errors.Wrap(err, errors.InvalidInput, "failed to decode parent ids")
	}
	if err := json.Unmarshal([]byte(params), &snap.StrategyParams); err != nil {
		return agent.Snapshot{}, errors.Wrap(err, errors.InvalidInput, "failed to decode strategy params")
	}
	if err := json.Unmarshal([]byte(metrics), &snap.Metrics); err != nil {
		return agent.Snapshot{}, errors.Wrap(err, errors.InvalidInput, "failed to decode metrics")
	}
	if fitness.Valid {
		f := fitness.Float64
		snap.Fitness = &f
	}

	return snap, nil
}

// SaveGenerationRecord appends one generation record.
func (s *Store) SaveGenerationRecord(ctx context.Context, rec evolution.GenerationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_records (generation, timestamp, best_fitness,
			average_fitness, population_size, diversity, elapsed_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Generation, rec.Timestamp.UnixNano(), rec.BestFitness,
		rec.AverageFitness, rec.PopulationSize, rec.DiversityMetric, rec.ElapsedSeconds)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to save generation record")
	}
	return nil
}

// ListGenerationRecords returns all stored records in append order.
func (s *Store) ListGenerationRecords(ctx context.Context) ([]evolution.GenerationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, timestamp, best_fitness, average_fitness,
			population_size, diversity, elapsed_seconds
		FROM generation_records ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to list generation records")
	}
	defer rows.Close()

	var records []evolution.GenerationRecord
	for rows.Next() {
		var (
			rec evolution.GenerationRecord
			ts  int64
		)
		if err := rows.Scan(&rec.Generation, &ts, &rec.BestFitness,
			&rec.AverageFitness, &rec.PopulationSize, &rec.DiversityMetric,
			&rec.ElapsedSeconds); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "failed to scan generation record")
		}
		rec.Timestamp = time.Unix(0, ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to iterate generation records")
	}

	return records, nil
}

// SaveHistory persists a full run: every generation record plus the
// per-generation best-agent snapshots.
func (s *Store) SaveHistory(ctx context.Context, history *evolution.History) error {
	for _, rec := range history.Records() {
		if err := s.SaveGenerationRecord(ctx, rec); err != nil {
			return err
		}
	}
	for _, best := range history.BestAgents() {
		if err := s.SaveAgent(ctx, best.Snapshot()); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
