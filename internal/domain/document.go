package domain

import (
	"time"
)

// Document lifecycle statuses
const (
	DocumentStatusProcessing = "Processing"
	DocumentStatusProcessed  = "Processed"
	DocumentStatusFailed     = "Failed"
)

// Document represents a single uploaded file and its processing lifecycle record
type Document struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	FilePath      string    `json:"filePath"`
	Sha256Hash    string    `json:"sha256Hash"`
	ContentType   string    `json:"contentType"`
	FileSizeBytes int64     `json:"fileSizeBytes"`
	UploadedAt    time.Time `json:"uploadedAt"`
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
}
