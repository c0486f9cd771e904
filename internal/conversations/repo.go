package conversations

import "context"

// Repo defines persistence operations for conversation turns. Turns of equal
// timestamp order the user turn before the persona reply.
type Repo interface {
	Create(ctx context.Context, turn Turn) error
	GetByID(ctx context.Context, id string) (Turn, error)
	Delete(ctx context.Context, id string) error
	// ListByDocument returns every turn of the document, oldest first.
	ListByDocument(ctx context.Context, documentID string) ([]Turn, error)
	// Recent returns up to limit turns of the document, newest first,
	// skipping excludeID.
	Recent(ctx context.Context, documentID, excludeID string, limit int) ([]Turn, error)
	// List pages through turns oldest first; an empty documentID lists all.
	List(ctx context.Context, documentID string, limit, offset int) ([]Turn, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
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

// before reports whether a sorts ahead of b chronologically.
func before(a, b Turn) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.IsPersonaReply != b.IsPersonaReply {
		return !a.IsPersonaReply
	}
	return a.ID < b.ID
}
