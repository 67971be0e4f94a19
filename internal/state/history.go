package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// ErrNotFound is returned when a compilation record does not exist.
var ErrNotFound = errors.New("compilation not found")

// Outcome is the result variant of a recorded compilation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Record is one stored compilation attempt.
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// Source names where the plan text came from: a file path or "generate".
	Source    string  `json:"source,omitempty" yaml:"source,omitempty"`
	Attempt   int     `json:"attempt" yaml:"attempt"`
	Statement string  `json:"statement,omitempty" yaml:"statement,omitempty"`
	RawPlan   string  `json:"raw_plan" yaml:"raw_plan"`
	Outcome   Outcome `json:"outcome" yaml:"outcome"`

	ErrorCode    string `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorStep    int    `json:"error_step,omitempty" yaml:"error_step,omitempty"`
	ErrorValue   string `json:"error_value,omitempty" yaml:"error_value,omitempty"`
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`

	StepCount   int                    `json:"step_count" yaml:"step_count"`
	Graph       *models.TaskGraph      `json:"graph,omitempty" yaml:"graph,omitempty"`
	Warnings    []models.EntityMention `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Diagnostics []models.Diagnostic    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewRecord builds a record for a finished compilation.
func NewRecord(source, statement, raw string, res compile.Result) *Record {
	r := &Record{
		Source:      source,
		Attempt:     1,
		Statement:   statement,
		RawPlan:     raw,
		Outcome:     OutcomeSuccess,
		Graph:       res.Graph,
		Warnings:    res.Warnings,
		Diagnostics: res.Diagnostics,
	}
	if res.Graph != nil {
		r.StepCount = res.Graph.Len()
	} else {
		r.StepCount = len(res.Partial)
	}
	if res.Err != nil {
		r.Outcome = OutcomeFailure
		r.ErrorCode = res.Err.Code()
		r.ErrorKind = string(res.Err.Kind)
		r.ErrorStep = res.Err.Step
		r.ErrorValue = res.Err.Value
		r.ErrorMessage = res.Err.Error()
	}
	return r
}

// RecordCompilation stores r, assigning an ID and timestamp when unset.
func (db *DB) RecordCompilation(r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Attempt <= 0 {
		r.Attempt = 1
	}

	graph, err := marshalNullable(r.Graph)
	if err != nil {
		return fmt.Errorf("record compilation: %w", err)
	}
	warnings, err := marshalNullable(r.Warnings)
	if err != nil {
		return fmt.Errorf("record compilation: %w", err)
	}
	diagnostics, err := marshalNullable(r.Diagnostics)
	if err != nil {
		return fmt.Errorf("record compilation: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO compilations (
			id, created_at, source, attempt, statement, raw_plan, outcome,
			error_code, error_kind, error_step, error_value, error_message,
			step_count, graph, warnings, diagnostics
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, formatTime(r.CreatedAt), r.Source, r.Attempt, r.Statement, r.RawPlan, string(r.Outcome),
		nullString(r.ErrorCode), nullString(r.ErrorKind), r.ErrorStep, nullString(r.ErrorValue), nullString(r.ErrorMessage),
		r.StepCount, graph, warnings, diagnostics)
	if err != nil {
		return fmt.Errorf("record compilation: %w", err)
	}
	return nil
}

const recordColumns = `
	id, created_at, source, attempt, statement, raw_plan, outcome,
	error_code, error_kind, error_step, error_value, error_message,
	step_count, graph, warnings, diagnostics`

// GetCompilation retrieves a record by ID.
func (db *DB) GetCompilation(id string) (*Record, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM compilations WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get compilation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get compilation %s: %w", id, err)
	}
	return r, nil
}

// ListCompilations returns the most recent records, newest first.
// A non-positive limit returns all records.
func (db *DB) ListCompilations(limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM compilations ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list compilations: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// PurgeOlderThan deletes records older than the specified duration.
// Returns the number of records deleted.
func (db *DB) PurgeOlderThan(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	result, err := db.Exec(`DELETE FROM compilations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge compilations: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var r Record
	var createdAt, outcome string
	var errCode, errKind, errValue, errMessage sql.NullString
	var errStep sql.NullInt64
	var graph, warnings, diagnostics sql.NullString

	err := s.Scan(&r.ID, &createdAt, &r.Source, &r.Attempt, &r.Statement, &r.RawPlan, &outcome,
		&errCode, &errKind, &errStep, &errValue, &errMessage,
		&r.StepCount, &graph, &warnings, &diagnostics)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, _ = parseTime(createdAt)
	r.Outcome = Outcome(outcome)
	r.ErrorCode = errCode.String
	r.ErrorKind = errKind.String
	r.ErrorStep = int(errStep.Int64)
	r.ErrorValue = errValue.String
	r.ErrorMessage = errMessage.String

	if graph.Valid {
		r.Graph = &models.TaskGraph{}
		if err := json.Unmarshal([]byte(graph.String), r.Graph); err != nil {
			return nil, fmt.Errorf("decode graph: %w", err)
		}
	}
	if warnings.Valid {
		if err := json.Unmarshal([]byte(warnings.String), &r.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	if diagnostics.Valid {
		if err := json.Unmarshal([]byte(diagnostics.String), &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("decode diagnostics: %w", err)
		}
	}
	return &r, nil
}

// marshalNullable encodes v as JSON, storing NULL for nil values and empty slices.
func marshalNullable[T any](v T) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if s := string(data); s == "null" || s == "[]" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
