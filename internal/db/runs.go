package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/scenario.report/internal/routes"
	"github.com/banshee-data/scenario.report/internal/scenario"
)

// RunRecord is one stored scenario run.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	FailedStage   string    `json:"failed_stage,omitempty"`
	Cause         string    `json:"cause,omitempty"`
	CacheDecision string    `json:"cache_decision,omitempty"`
	PlaygroundX   float64   `json:"playground_x"`
	PlaygroundY   float64   `json:"playground_y"`
	RSUX          float64   `json:"rsu_x"`
	RSUY          float64   `json:"rsu_y"`
	Warnings      int       `json:"warnings"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// RunRecordFromResult flattens a pipeline result for storage.
func RunRecordFromResult(res *scenario.Result) RunRecord {
	rec := RunRecord{
		RunID:         res.RunID,
		Name:          res.Name,
		Status:        scenario.RunSucceeded,
		CacheDecision: string(res.CacheDecision),
		PlaygroundX:   res.Geometry.PlaygroundWidth,
		PlaygroundY:   res.Geometry.PlaygroundHeight,
		RSUX:          res.Geometry.ReferenceX,
		RSUY:          res.Geometry.ReferenceY,
		Warnings:      len(res.Warnings),
		StartedAt:     res.StartedAt,
		FinishedAt:    res.FinishedAt,
	}
	if res.Failure != nil {
		rec.Status = scenario.RunFailed
		rec.FailedStage = string(res.Failure.Stage)
		rec.Cause = string(res.Failure.Kind)
	}
	return rec
}

// RecordRun stores a finished run together with its edge ranking.
func (db *DB) RecordRun(res *scenario.Result) error {
	rec := RunRecordFromResult(res)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scenario_runs (
			run_id, name, status, failed_stage, cause, cache_decision,
			playground_x, playground_y, rsu_x, rsu_y, warnings,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Name, rec.Status, rec.FailedStage, rec.Cause, rec.CacheDecision,
		rec.PlaygroundX, rec.PlaygroundY, rec.RSUX, rec.RSUY, rec.Warnings,
		rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for i, ec := range res.TopEdges {
		if _, err := tx.Exec(
			`INSERT INTO scenario_edge_usage (run_id, rank, edge_id, count) VALUES (?, ?, ?, ?)`,
			rec.RunID, i+1, ec.EdgeID, ec.Count,
		); err != nil {
			return fmt.Errorf("failed to record edge usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	query := `
		SELECT
			run_id, name, status, failed_stage, cause, cache_decision,
			playground_x, playground_y, rsu_x, rsu_y, warnings,
			started_at, finished_at
		FROM scenario_runs
		ORDER BY started_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedMs, finishedMs int64
		if err := rows.Scan(
			&rec.RunID, &rec.Name, &rec.Status, &rec.FailedStage, &rec.Cause, &rec.CacheDecision,
			&rec.PlaygroundX, &rec.PlaygroundY, &rec.RSUX, &rec.RSUY, &rec.Warnings,
			&startedMs, &finishedMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMs).UTC()
		rec.FinishedAt = time.UnixMilli(finishedMs).UTC()
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns one run, or sql.ErrNoRows if it is unknown.
func (db *DB) GetRun(runID string) (*RunRecord, error) {
	var rec RunRecord
	var startedMs, finishedMs int64
	err := db.QueryRow(`
		SELECT
			run_id, name, status, failed_stage, cause, cache_decision,
			playground_x, playground_y, rsu_x, rsu_y, warnings,
			started_at, finished_at
		FROM scenario_runs
		WHERE run_id = ?`, runID).Scan(
		&rec.RunID, &rec.Name, &rec.Status, &rec.FailedStage, &rec.Cause, &rec.CacheDecision,
		&rec.PlaygroundX, &rec.PlaygroundY, &rec.RSUX, &rec.RSUY, &rec.Warnings,
		&startedMs, &finishedMs,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	rec.StartedAt = time.UnixMilli(startedMs).UTC()
	rec.FinishedAt = time.UnixMilli(finishedMs).UTC()
	return &rec, nil
}

// RunEdges returns the stored edge ranking of a run, rank 1 first.
func (db *DB) RunEdges(runID string) ([]routes.EdgeCount, error) {
	rows, err := db.Query(
		`SELECT edge_id, count FROM scenario_edge_usage WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edge usage: %w", err)
	}
	defer rows.Close()

	var edges []routes.EdgeCount
	for rows.Next() {
		var ec routes.EdgeCount
		if err := rows.Scan(&ec.EdgeID, &ec.Count); err != nil {
			return nil, fmt.Errorf("failed to scan edge usage: %w", err)
		}
		edges = append(edges, ec)
	}
	return edges, rows.Err()
}
