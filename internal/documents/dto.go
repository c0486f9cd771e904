package documents

import (
	"encoding/json"
	"time"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	FileRef    string    `json:"fileRef,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	MimeType   string    `json:"mimeType,omitempty"`
	SizeBytes  int64     `json:"sizeBytes"`
	HasFile    bool      `json:"hasFile"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		FileRef:    doc.FileRef,
		FileName:   doc.FileName,
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		HasFile:    doc.HasFile(),
		UploadedAt: doc.UploadedAt,
	}
}

// DocumentDetail is a DocumentResponse with related collections added as
// extra top-level keys.
type DocumentDetail struct {
	DocumentResponse
	Related map[string]any
}

func (d DocumentDetail) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(d.DocumentResponse)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for key, value := range d.Related {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}
