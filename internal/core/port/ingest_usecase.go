package port

import (
	"context"

	"promofeed/internal/core/domain"
)

// IngestResult is returned for every accepted submission. IsUpdate is
// false on the first sighting of a fingerprint and true when the
// submission merged into an existing record.
type IngestResult struct {
	Campaign domain.Campaign
	IsUpdate bool
}

// IngestUseCase is the primary port for the ingestion pipeline. A
// submission flows through source normalization, the quality gate,
// fingerprint deduplication and feed classification; see Ingest for the
// error contract.
type IngestUseCase interface {
	// Ingest runs the full pipeline for one submission. It returns a
	// *ValidationError for malformed payloads and a
	// *QualityRejectedError for content below the acceptance threshold;
	// both leave the store untouched. Store failures propagate
	// unchanged so the caller can retry the whole submission later.
	Ingest(ctx context.Context, sub domain.Submission) (IngestResult, error)
}
