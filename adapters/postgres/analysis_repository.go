package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"ecocausal/domain/core"
	"ecocausal/internal/errors"
	"ecocausal/models"
	"ecocausal/ports"
)

// AnalysisRepositoryImpl implements AnalysisStore for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisStore {
	return &AnalysisRepositoryImpl{db: db}
}

// SaveAnalysis inserts an analysis record. A repeated fingerprint updates
// the existing row instead of inserting a duplicate; the record's ID and
// creation time are rewritten to the stored row's values so callers
// always hold the canonical identity.
func (r *AnalysisRepositoryImpl) SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	if record == nil {
		return errors.InvalidInput("analysis record is required")
	}
	if record.Fingerprint.IsEmpty() {
		return errors.InvalidInput("analysis record needs a fingerprint")
	}

	payload := record.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	var storedID string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO analyses (id, kind, target_name, fingerprint, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fingerprint) DO UPDATE SET
			kind = EXCLUDED.kind,
			target_name = EXCLUDED.target_name,
			payload = EXCLUDED.payload
		RETURNING id, created_at`,
		record.ID.String(), record.Kind, record.TargetName, string(record.Fingerprint),
		[]byte(payload), record.CreatedAt).Scan(&storedID, &record.CreatedAt)
	if err != nil {
		return errors.StorageError("failed to save analysis", err)
	}

	record.ID = core.AnalysisID(storedID)
	return nil
}

// GetAnalysis retrieves a record by ID
func (r *AnalysisRepositoryImpl) GetAnalysis(ctx context.Context, id core.AnalysisID) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	var recordID, fingerprint string
	var payload []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, target_name, fingerprint, payload, created_at
		FROM analyses
		WHERE id = $1
	`, id.String()).Scan(&recordID, &record.Kind, &record.TargetName, &fingerprint, &payload, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("analysis " + id.String())
	}
	if err != nil {
		return nil, errors.StorageError("failed to load analysis", err)
	}

	record.ID = core.AnalysisID(recordID)
	record.Fingerprint = core.Hash(fingerprint)
	record.Payload = json.RawMessage(payload)
	return &record, nil
}

// ListAnalyses returns records newest-first, optionally filtered by kind
func (r *AnalysisRepositoryImpl) ListAnalyses(ctx context.Context, kind string, limit int) ([]*models.AnalysisRecord, error) {
	query := `
		SELECT id, kind, target_name, fingerprint, payload, created_at
		FROM analyses
	`
	args := []interface{}{}
	if kind != "" {
		query += " WHERE kind = $1"
		args = append(args, kind)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		if kind != "" {
			query += " LIMIT $2"
		} else {
			query += " LIMIT $1"
		}
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.StorageError("failed to list analyses", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		var record models.AnalysisRecord
		var recordID, fingerprint string
		var payload []byte

		if err := rows.Scan(&recordID, &record.Kind, &record.TargetName, &fingerprint, &payload, &record.CreatedAt); err != nil {
			return nil, errors.StorageError("failed to scan analysis row", err)
		}

		record.ID = core.AnalysisID(recordID)
		record.Fingerprint = core.Hash(fingerprint)
		record.Payload = json.RawMessage(payload)
		records = append(records, &record)
	}
	return records, rows.Err()
}
