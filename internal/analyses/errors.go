package analyses

import "errors"

var (
	ErrNotFound      = errors.New("analysis not found")
	ErrNoFile        = errors.New("document has no file to analyze")
	ErrAlreadyExists = errors.New("document already has an analysis")
	ErrInvalidInput  = errors.New("invalid input")
)
