package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scenario.report/internal/compare"
)

// ComparisonRecord is one stored comparison report.
type ComparisonRecord struct {
	ReportID  string         `json:"report_id"`
	BaseName  string         `json:"base_name"`
	Folder    string         `json:"folder"`
	Report    compare.Report `json:"report"`
	CreatedAt time.Time      `json:"created_at"`
}

// RecordComparison stores a report and returns its generated id.
func (db *DB) RecordComparison(base, folder string, report compare.Report, at time.Time) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	id := uuid.NewString()
	_, err = db.Exec(
		`INSERT INTO comparison_reports (report_id, base_name, folder, report_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, base, folder, string(body), at.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record comparison: %w", err)
	}
	return id, nil
}

// ListComparisons returns the most recent reports first. limit <= 0
// returns all.
func (db *DB) ListComparisons(limit int) ([]ComparisonRecord, error) {
	query := `
		SELECT report_id, base_name, folder, report_json, created_at
		FROM comparison_reports
		ORDER BY created_at DESC, report_id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	defer rows.Close()

	var out []ComparisonRecord
	for rows.Next() {
		var rec ComparisonRecord
		var body string
		var createdMs int64
		if err := rows.Scan(&rec.ReportID, &rec.BaseName, &rec.Folder, &body, &createdMs); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		if err := json.Unmarshal([]byte(body), &rec.Report); err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", rec.ReportID, err)
		}
		rec.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
