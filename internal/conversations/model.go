package conversations

import "time"

const (
	ContextDocument = "document"
	ContextGeneral  = "general"
)

// Turn is one message of a conversation. DocumentID is empty for general
// chat. ParentTurnID links a persona reply to the user turn it answers.
type Turn struct {
	ID                  string
	DocumentID          string
	Message             string
	IsPersonaReply      bool
	Timestamp           time.Time
	ParentTurnID        string
	ConversationGroupID string
}

// ContextType is "document" when the turn belongs to a document, else "general".
func (t Turn) ContextType() string {
	if t.DocumentID != "" {
		return ContextDocument
	}
	return ContextGeneral
}
