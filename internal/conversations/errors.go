package conversations

import "errors"

var (
	ErrNotFound         = errors.New("conversation turn not found")
	ErrEmptyMessage     = errors.New("message is required")
	ErrAnalysisRequired = errors.New("document must be analyzed before chatting")
	ErrInvalidInput     = errors.New("invalid input")
)
