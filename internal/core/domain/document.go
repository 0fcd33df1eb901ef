package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	MimeType     string         `json:"mime_type"`
	StoragePath  string         `json:"storage_path"`
	Status       DocumentStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	PageCount    int            `json:"page_count,omitempty"`
	PassageCount int            `json:"passage_count,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Page is one unit of extracted source text. PDF pages map one to one,
// spreadsheet sheets count as pages, plain text is a single page.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}
