package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"persona-review/internal/documents"
	"persona-review/internal/extract"
	"persona-review/internal/llm"
	"persona-review/internal/persona"
	"persona-review/internal/shared/metrics"
	"persona-review/internal/shared/telemetry"
	"persona-review/internal/structurer"
)

const (
	statusNone      = "none"
	statusAnalyzing = "analyzing"
	statusAnalyzed  = "analyzed"
	statusFailed    = "failed"
)

// DocumentSource is the slice of the documents service analyses depend on.
type DocumentSource interface {
	Get(ctx context.Context, id string) (documents.Document, error)
	ReadFile(ctx context.Context, doc documents.Document) ([]byte, error)
}

// ExtractFunc turns stored file bytes into plain text.
type ExtractFunc func(ctx context.Context, data []byte) (string, error)

// Service contains business logic for analyses.
type Service struct {
	Repo    Repo
	Docs    DocumentSource
	LLM     llm.Client
	Persona *persona.Persona
	Extract ExtractFunc
	Now     func() time.Time
}

// Analyze returns the document's analysis, producing it on first call.
// created is false when a stored analysis was returned. Nothing is persisted
// unless every step succeeds.
func (s *Service) Analyze(ctx context.Context, documentID string) (Analysis, bool, error) {
	doc, err := s.Docs.Get(ctx, documentID)
	if err != nil {
		return Analysis{}, false, err
	}

	existing, err := s.Repo.GetByDocument(ctx, doc.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return Analysis{}, false, err
	}

	if !doc.HasFile() {
		return Analysis{}, false, ErrNoFile
	}

	started := time.Now()
	metrics.IncAnalysisStarted()
	logTransition(doc.ID, "", statusNone, statusAnalyzing, nil)

	analysis, created, err := s.produce(ctx, doc)
	metrics.ObserveAnalysisDuration(time.Since(started))
	if err != nil {
		metrics.IncAnalysisFailed()
		logTransition(doc.ID, "", statusAnalyzing, statusFailed, err)
		return Analysis{}, false, err
	}

	metrics.IncAnalysisCompleted()
	logTransition(doc.ID, analysis.ID, statusAnalyzing, statusAnalyzed, nil)
	return analysis, created, nil
}

func (s *Service) produce(ctx context.Context, doc documents.Document) (Analysis, bool, error) {
	data, err := s.Docs.ReadFile(ctx, doc)
	if err != nil {
		return Analysis{}, false, fmt.Errorf("read document file: %w", err)
	}
	text, err := s.extract(ctx, data)
	if err != nil {
		return Analysis{}, false, err
	}

	p := s.persona()
	raw, err := s.LLM.Complete(ctx, p.AnalysisMessages(text), p.AnalysisParams())
	if err != nil {
		return Analysis{}, false, err
	}

	result, err := json.Marshal(structurer.Structure(raw))
	if err != nil {
		return Analysis{}, false, fmt.Errorf("encode structured result: %w", err)
	}

	return s.Repo.CreateIfAbsent(ctx, Analysis{
		ID:               uuid.NewString(),
		DocumentID:       doc.ID,
		StructuredResult: result,
		CreatedAt:        s.now(),
	})
}

// Create stores a caller-supplied structured result for an existing document.
func (s *Service) Create(ctx context.Context, documentID string, result json.RawMessage) (Analysis, error) {
	if documentID == "" {
		return Analysis{}, fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}
	if len(result) == 0 || !json.Valid(result) {
		return Analysis{}, fmt.Errorf("%w: structuredResult must be valid JSON", ErrInvalidInput)
	}
	if _, err := s.Docs.Get(ctx, documentID); err != nil {
		return Analysis{}, err
	}

	analysis := Analysis{
		ID:               uuid.NewString(),
		DocumentID:       documentID,
		StructuredResult: result,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}
	telemetry.Info("analysis.created", map[string]any{"document_id": documentID, "analysis_id": analysis.ID})
	return analysis, nil
}

func (s *Service) Get(ctx context.Context, id string) (Analysis, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, documentID string, limit, offset int) ([]Analysis, error) {
	return s.Repo.List(ctx, documentID, limit, offset)
}

// ByDocument returns the document's analysis or ErrNotFound.
func (s *Service) ByDocument(ctx context.Context, documentID string) (Analysis, error) {
	return s.Repo.GetByDocument(ctx, documentID)
}

// ForDocument lists the document's analyses; there is at most one.
func (s *Service) ForDocument(ctx context.Context, documentID string) ([]Analysis, error) {
	return s.Repo.List(ctx, documentID, maxListLimit, 0)
}

func (s *Service) DeleteByDocument(ctx context.Context, documentID string) error {
	return s.Repo.DeleteByDocument(ctx, documentID)
}

func (s *Service) extract(ctx context.Context, data []byte) (string, error) {
	if s.Extract != nil {
		return s.Extract(ctx, data)
	}
	return extract.Extract(ctx, data)
}

func (s *Service) persona() *persona.Persona {
	if s.Persona != nil {
		return s.Persona
	}
	return persona.Default()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func logTransition(documentID, analysisID, from, to string, err error) {
	fields := map[string]any{
		"document_id":       documentID,
		"status_transition": from + "->" + to,
	}
	if analysisID != "" {
		fields["analysis_id"] = analysisID
	}
	if err != nil {
		fields["error"] = err
		telemetry.Error("analysis.status", fields)
		return
	}
	telemetry.Info("analysis.status", fields)
}
