package conversations

import "time"

// TurnResponse is the outward-facing representation of a turn.
type TurnResponse struct {
	ID                  string    `json:"id"`
	DocumentID          *string   `json:"documentId"`
	Message             string    `json:"message"`
	IsPersonaReply      bool      `json:"isPersonaReply"`
	Timestamp           time.Time `json:"timestamp"`
	ParentTurnID        *string   `json:"parentTurnId"`
	ConversationGroupID *string   `json:"conversationGroupId"`
	ContextType         string    `json:"contextType"`
}

// ChatResponse holds the user turn followed by the persona reply.
type ChatResponse struct {
	Conversation []TurnResponse `json:"conversation"`
}

type chatRequest struct {
	Message             string `json:"message"`
	ConversationGroupID string `json:"conversationGroupId"`
}

type createTurnRequest struct {
	DocumentID          string `json:"documentId"`
	Message             string `json:"message"`
	IsPersonaReply      bool   `json:"isPersonaReply"`
	ParentTurnID        string `json:"parentTurnId"`
	ConversationGroupID string `json:"conversationGroupId"`
}

func toResponse(t Turn) TurnResponse {
	return TurnResponse{
		ID:                  t.ID,
		DocumentID:          optional(t.DocumentID),
		Message:             t.Message,
		IsPersonaReply:      t.IsPersonaReply,
		Timestamp:           t.Timestamp,
		ParentTurnID:        optional(t.ParentTurnID),
		ConversationGroupID: optional(t.ConversationGroupID),
		ContextType:         t.ContextType(),
	}
}

// ToResponses converts a slice for embedding in other views.
func ToResponses(turns []Turn) []TurnResponse {
	out := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, toResponse(t))
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
