package conversations

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores turns in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Turn
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Turn)}
}

func (r *MemoryRepo) Create(ctx context.Context, turn Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[turn.ID] = turn
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Turn, error) {
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	turn, ok := r.byID[id]
	if !ok {
		return Turn{}, ErrNotFound
	}
	return turn, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for key, turn := range r.byID {
		if turn.ParentTurnID == id {
			turn.ParentTurnID = ""
			r.byID[key] = turn
		}
	}
	return nil
}

func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.chronological(documentID, true), nil
}

func (r *MemoryRepo) Recent(ctx context.Context, documentID, excludeID string, limit int) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Turn{}, nil
	}
	turns := r.chronological(documentID, true)
	out := make([]Turn, 0, limit)
	for i := len(turns) - 1; i >= 0 && len(out) < limit; i-- {
		if turns[i].ID == excludeID {
			continue
		}
		out = append(out, turns[i])
	}
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context, documentID string, limit, offset int) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	turns := r.chronological(documentID, documentID != "")
	if offset >= len(turns) {
		return []Turn{}, nil
	}
	end := offset + limit
	if end > len(turns) {
		end = len(turns)
	}
	return turns[offset:end], nil
}

func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, turn := range r.byID {
		if turn.DocumentID == documentID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *MemoryRepo) chronological(documentID string, filter bool) []Turn {
	r.mu.RLock()
	turns := make([]Turn, 0, len(r.byID))
	for _, turn := range r.byID {
		if filter && turn.DocumentID != documentID {
			continue
		}
		turns = append(turns, turn)
	}
	r.mu.RUnlock()

	sort.Slice(turns, func(i, j int) bool { return before(turns[i], turns[j]) })
	return turns
}

var _ Repo = (*MemoryRepo)(nil)
