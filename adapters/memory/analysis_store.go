// Package memory provides an in-process AnalysisStore used when no
// database is configured. Records live for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"ecocausal/domain/core"
	"ecocausal/internal/errors"
	"ecocausal/models"
	"ecocausal/ports"
)

// AnalysisStoreImpl implements AnalysisStore with an in-process map
type AnalysisStoreImpl struct {
	mu            sync.RWMutex
	records       map[core.AnalysisID]models.AnalysisRecord
	byFingerprint map[core.Hash]core.AnalysisID
}

// NewAnalysisStore creates an empty in-memory analysis store
func NewAnalysisStore() ports.AnalysisStore {
	return &AnalysisStoreImpl{
		records:       make(map[core.AnalysisID]models.AnalysisRecord),
		byFingerprint: make(map[core.Hash]core.AnalysisID),
	}
}

// SaveAnalysis inserts or updates a record. A repeated fingerprint keeps
// the stored row's ID and creation time, matching the SQL store's upsert;
// the caller's record is rewritten to the canonical identity.
func (s *AnalysisStoreImpl) SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	if record == nil {
		return errors.InvalidInput("analysis record is required")
	}
	if record.Fingerprint.IsEmpty() {
		return errors.InvalidInput("analysis record needs a fingerprint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	if existingID, ok := s.byFingerprint[record.Fingerprint]; ok {
		existing := s.records[existingID]
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	s.records[stored.ID] = stored
	s.byFingerprint[stored.Fingerprint] = stored.ID

	record.ID = stored.ID
	record.CreatedAt = stored.CreatedAt
	return nil
}

// GetAnalysis retrieves a record by ID
func (s *AnalysisStoreImpl) GetAnalysis(ctx context.Context, id core.AnalysisID) (*models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, errors.NotFound("analysis " + id.String())
	}
	return &record, nil
}

// ListAnalyses returns records newest-first, optionally filtered by kind
func (s *AnalysisStoreImpl) ListAnalyses(ctx context.Context, kind string, limit int) ([]*models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.AnalysisRecord
	for id := range s.records {
		record := s.records[id]
		if kind != "" && record.Kind != kind {
			continue
		}
		records = append(records, &record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() > records[j].ID.String()
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
