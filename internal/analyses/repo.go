package analyses

import "context"

// Repo defines persistence operations for analyses. Storage enforces at most
// one analysis per document.
type Repo interface {
	// Create fails with ErrAlreadyExists when the document is already analysed.
	Create(ctx context.Context, analysis Analysis) error
	// CreateIfAbsent stores analysis unless one exists for its document, and
	// returns whichever record is stored plus whether it was created now.
	CreateIfAbsent(ctx context.Context, analysis Analysis) (Analysis, bool, error)
	GetByID(ctx context.Context, id string) (Analysis, error)
	GetByDocument(ctx context.Context, documentID string) (Analysis, error)
	// List returns analyses newest first; an empty documentID lists all.
	List(ctx context.Context, documentID string, limit, offset int) ([]Analysis, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
