// Package models defines persistence records and API request shapes.
package models

import (
	"encoding/json"
	"time"

	"ecocausal/domain/core"
)

// Analysis kinds stored in the history table
const (
	KindCorrelation = "correlation"
	KindMatrix      = "matrix"
	KindLag         = "lag"
	KindMultiLag    = "multi_lag"
	KindSeasonality = "seasonality"
	KindRegression  = "regression"
	KindGranger     = "granger"
	KindHypothesis  = "hypothesis"
	KindDrivers     = "drivers"
)

// AnalysisRecord is one completed analysis result, stored as JSONB with
// enough metadata to list and dedupe history. Fingerprint hashes the
// inputs so identical requests upsert instead of piling up.
type AnalysisRecord struct {
	ID          core.AnalysisID `db:"id" json:"id"`
	Kind        string          `db:"kind" json:"kind"`
	TargetName  string          `db:"target_name" json:"targetName"`
	Fingerprint core.Hash       `db:"fingerprint" json:"fingerprint"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// NewAnalysisRecord builds a record around a serializable result payload
func NewAnalysisRecord(kind, targetName string, fingerprint core.Hash, payload any) (*AnalysisRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &AnalysisRecord{
		ID:          core.NewAnalysisID(),
		Kind:        kind,
		TargetName:  targetName,
		Fingerprint: fingerprint,
		Payload:     raw,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
