package conversations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"persona-review/internal/analyses"
	"persona-review/internal/documents"
	"persona-review/internal/llm"
	"persona-review/internal/persona"
	"persona-review/internal/shared/metrics"
	"persona-review/internal/shared/telemetry"
)

// DocumentLookup resolves the document a chat is about.
type DocumentLookup interface {
	Get(ctx context.Context, id string) (documents.Document, error)
}

// AnalysisLookup returns a document's analysis or analyses.ErrNotFound.
type AnalysisLookup interface {
	ByDocument(ctx context.Context, documentID string) (analyses.Analysis, error)
}

// Service contains business logic for conversations.
type Service struct {
	Repo     Repo
	Docs     DocumentLookup
	Analyses AnalysisLookup
	LLM      llm.Client
	Persona  *persona.Persona
	Now      func() time.Time
}

// ChatInput is one user message. DocumentID is empty for general chat and
// GroupID is generated when empty.
type ChatInput struct {
	Message    string
	DocumentID string
	GroupID    string
}

// Exchange is the stored user turn and the persona's reply to it.
type Exchange struct {
	User  Turn
	Reply Turn
}

// Chat stores the user's message, asks the persona for a reply and stores it.
// If no reply can be produced the user turn is removed again.
func (s *Service) Chat(ctx context.Context, in ChatInput) (Exchange, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return Exchange{}, ErrEmptyMessage
	}

	analysisJSON := "null"
	if in.DocumentID != "" {
		if _, err := s.Docs.Get(ctx, in.DocumentID); err != nil {
			return Exchange{}, err
		}
		analysis, err := s.Analyses.ByDocument(ctx, in.DocumentID)
		if errors.Is(err, analyses.ErrNotFound) {
			return Exchange{}, ErrAnalysisRequired
		}
		if err != nil {
			return Exchange{}, err
		}
		analysisJSON = indentJSON(analysis.StructuredResult)
	}

	group := strings.TrimSpace(in.GroupID)
	if group == "" {
		group = uuid.NewString()
	}

	user := Turn{
		ID:                  uuid.NewString(),
		DocumentID:          in.DocumentID,
		Message:             message,
		Timestamp:           s.now(),
		ConversationGroupID: group,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return Exchange{}, fmt.Errorf("store user turn: %w", err)
	}

	started := time.Now()
	reply, err := s.reply(ctx, user, analysisJSON)
	metrics.ObserveChatDuration(time.Since(started))
	if err != nil {
		metrics.IncChatFailed()
		s.discard(ctx, user, err)
		return Exchange{}, err
	}

	metrics.IncChatCompleted()
	telemetry.Info("chat.completed", map[string]any{
		"document_id":     in.DocumentID,
		"conversation_id": group,
		"context_type":    user.ContextType(),
	})
	return Exchange{User: user, Reply: reply}, nil
}

func (s *Service) reply(ctx context.Context, user Turn, analysisJSON string) (Turn, error) {
	p := s.persona()

	var history []Turn
	if user.DocumentID != "" {
		recent, err := s.Repo.Recent(ctx, user.DocumentID, user.ID, p.Chat.HistoryTurns)
		if err != nil {
			return Turn{}, fmt.Errorf("load history: %w", err)
		}
		history = recent
	}

	text, err := s.LLM.Complete(ctx, buildMessages(p, analysisJSON, user.Message, history), p.ChatParams())
	if err != nil {
		return Turn{}, err
	}

	at := s.now()
	if !at.After(user.Timestamp) {
		at = user.Timestamp.Add(time.Microsecond)
	}
	reply := Turn{
		ID:                  uuid.NewString(),
		DocumentID:          user.DocumentID,
		Message:             text,
		IsPersonaReply:      true,
		Timestamp:           at,
		ParentTurnID:        user.ID,
		ConversationGroupID: user.ConversationGroupID,
	}
	if err := s.Repo.Create(ctx, reply); err != nil {
		return Turn{}, fmt.Errorf("store reply turn: %w", err)
	}
	return reply, nil
}

// buildMessages lays out the prompt: chat system prompt, context, history
// oldest first, then the new message. recent is newest first.
func buildMessages(p *persona.Persona, analysisJSON, message string, recent []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(recent)+3)
	messages = append(messages,
		llm.System(p.Prompts.Chat),
		llm.User(p.ChatContext(analysisJSON, message)),
	)
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].IsPersonaReply {
			messages = append(messages, llm.Assistant(recent[i].Message))
		} else {
			messages = append(messages, llm.User(recent[i].Message))
		}
	}
	return append(messages, llm.User(message))
}

func (s *Service) discard(ctx context.Context, user Turn, cause error) {
	fields := map[string]any{
		"document_id":     user.DocumentID,
		"conversation_id": user.ConversationGroupID,
		"error":           cause,
	}
	// the request context may already be cancelled; cleanup must still run
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.Repo.Delete(cleanupCtx, user.ID); err != nil && !errors.Is(err, ErrNotFound) {
		fields["cleanup_error"] = err
	}
	telemetry.Error("chat.failed", fields)
}

// Create stores a turn supplied directly by the caller.
func (s *Service) Create(ctx context.Context, turn Turn) (Turn, error) {
	turn.Message = strings.TrimSpace(turn.Message)
	if turn.Message == "" {
		return Turn{}, ErrEmptyMessage
	}
	if turn.DocumentID != "" {
		if _, err := s.Docs.Get(ctx, turn.DocumentID); err != nil {
			return Turn{}, err
		}
	}
	if turn.ParentTurnID != "" {
		if _, err := s.Repo.GetByID(ctx, turn.ParentTurnID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Turn{}, fmt.Errorf("%w: parent turn %s does not exist", ErrInvalidInput, turn.ParentTurnID)
			}
			return Turn{}, err
		}
	}
	turn.ID = uuid.NewString()
	turn.Timestamp = s.now()
	if err := s.Repo.Create(ctx, turn); err != nil {
		return Turn{}, err
	}
	return turn, nil
}

func (s *Service) Get(ctx context.Context, id string) (Turn, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, documentID string, limit, offset int) ([]Turn, error) {
	return s.Repo.List(ctx, documentID, limit, offset)
}

// History returns the turns of an existing document, oldest first.
func (s *Service) History(ctx context.Context, documentID string) ([]Turn, error) {
	if _, err := s.Docs.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.Repo.ListByDocument(ctx, documentID)
}

// ForDocument returns the document's turns, oldest first.
func (s *Service) ForDocument(ctx context.Context, documentID string) ([]Turn, error) {
	return s.Repo.ListByDocument(ctx, documentID)
}

func (s *Service) DeleteByDocument(ctx context.Context, documentID string) error {
	return s.Repo.DeleteByDocument(ctx, documentID)
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

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
