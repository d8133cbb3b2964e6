package ports

import (
	"context"

	"ecocausal/domain/core"
	"ecocausal/models"
)

// AnalysisStore defines the interface for persisting completed analyses.
// Persistence is an optional collaborator: the stats engines never touch
// it, only the application service does.
type AnalysisStore interface {
	// SaveAnalysis inserts or updates a completed analysis record
	SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error

	// GetAnalysis retrieves a record by ID
	GetAnalysis(ctx context.Context, id core.AnalysisID) (*models.AnalysisRecord, error)

	// ListAnalyses returns records newest-first, optionally filtered by
	// kind ("" means all kinds) and limited (0 means no limit)
	ListAnalyses(ctx context.Context, kind string, limit int) ([]*models.AnalysisRecord, error)
}
