package documents

import "time"

// MaxTitleLength bounds Document.Title in characters.
const MaxTitleLength = 255

// Document is an uploaded item. It is never modified after creation.
type Document struct {
	ID         string
	Title      string
	FileRef    string
	FileName   string
	MimeType   string
	SizeBytes  int64
	UploadedAt time.Time
}

// HasFile reports whether a blob was stored for the document.
func (d Document) HasFile() bool {
	return d.FileRef != ""
}
