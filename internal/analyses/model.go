package analyses

import (
	"encoding/json"
	"time"
)

// Analysis is the single persona critique of a document. It is immutable
// once stored; StructuredResult holds the structurer record as JSON.
type Analysis struct {
	ID               string
	DocumentID       string
	StructuredResult json.RawMessage
	CreatedAt        time.Time
}
