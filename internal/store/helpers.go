package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gemshield/gemshield/internal/models"
)

// sessionColumns marshals the structured parts of a session record into the
// JSON column values shared by both SQL backends.
func sessionColumns(rec models.SessionRecord) (recordJSON, stateJSON string, resultJSON interface{}, err error) {
	record, err := json.Marshal(rec.Record)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to marshal user record: %w", err)
	}
	state, err := json.Marshal(rec.State)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to marshal flow state: %w", err)
	}
	var result interface{}
	if rec.Result != nil {
		encoded, err := json.Marshal(rec.Result)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to marshal quote result: %w", err)
		}
		result = string(encoded)
	}
	return string(record), string(state), result, nil
}

// scanSessionRow scans a session from a single sql.Row.
func scanSessionRow(row *sql.Row) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	var recordJSON, stateJSON string
	var resultJSON sql.NullString
	err := row.Scan(&rec.ID, &recordJSON, &stateJSON, &resultJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeSession(&rec, recordJSON, stateJSON, resultJSON); err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanSession scans a session from sql.Rows.
func scanSession(rows *sql.Rows) (models.SessionRecord, error) {
	var rec models.SessionRecord
	var recordJSON, stateJSON string
	var resultJSON sql.NullString
	err := rows.Scan(&rec.ID, &recordJSON, &stateJSON, &resultJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return rec, fmt.Errorf("scan session failed: %w", err)
	}
	if err := decodeSession(&rec, recordJSON, stateJSON, resultJSON); err != nil {
		return rec, err
	}
	return rec, nil
}

func decodeSession(rec *models.SessionRecord, recordJSON, stateJSON string, resultJSON sql.NullString) error {
	if err := json.Unmarshal([]byte(recordJSON), &rec.Record); err != nil {
		return fmt.Errorf("failed to unmarshal user record: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &rec.State); err != nil {
		return fmt.Errorf("failed to unmarshal flow state: %w", err)
	}
	if resultJSON.Valid {
		var result models.CanonicalQuoteResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return fmt.Errorf("failed to unmarshal quote result: %w", err)
		}
		rec.Result = &result
	}
	return nil
}
