package analyses

import (
	"encoding/json"
	"time"
)

// AnalysisResponse is the outward-facing representation of an analysis.
type AnalysisResponse struct {
	ID               string          `json:"id"`
	DocumentID       string          `json:"documentId"`
	StructuredResult json.RawMessage `json:"structuredResult"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// AnalyzeResponse is returned by POST /documents/:id/analyze.
type AnalyzeResponse struct {
	Message          string          `json:"message,omitempty"`
	AnalysisID       string          `json:"analysisId"`
	StructuredResult json.RawMessage `json:"structuredResult"`
}

type createAnalysisRequest struct {
	DocumentID       string          `json:"documentId"`
	StructuredResult json.RawMessage `json:"structuredResult"`
}

func toResponse(a Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:               a.ID,
		DocumentID:       a.DocumentID,
		StructuredResult: a.StructuredResult,
		CreatedAt:        a.CreatedAt,
	}
}

// ToResponses converts a slice for embedding in other views.
func ToResponses(items []Analysis) []AnalysisResponse {
	out := make([]AnalysisResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toResponse(a))
	}
	return out
}
