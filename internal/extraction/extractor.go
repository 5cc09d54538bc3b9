// Package extraction produces raw text from stored receipt files: plain read
// for text, PDF text extraction, and vision OCR for images.
package extraction

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/receipthealth/receipt-processor-service/internal/imageutil"
)

// ExtractionError represents an error in the text extraction layer
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor produces raw text from a stored file and its declared media type.
type Extractor interface {
	Extract(ctx context.Context, filePath, contentType string) (string, error)
}

// FileReader reads stored bytes back from the content store.
type FileReader interface {
	Read(path string) ([]byte, error)
}

// VisionClient transcribes receipt images via an external vision model.
type VisionClient interface {
	Configured() bool
	ExtractReceiptText(ctx context.Context, imageURL string) (string, error)
	ExtractReceiptTextFromBytes(ctx context.Context, imageData []byte, contentType string) (string, error)
}

// Archiver mirrors image bytes to object storage and returns a public URL.
type Archiver interface {
	Archive(data []byte, key, contentType string) (string, error)
}

// Service dispatches extraction by declared media type. Text files are read
// directly, PDFs go through text extraction, and images are transcribed by
// the vision client. Without a configured vision client image extraction
// degrades to a deterministic mock receipt so the rest of the pipeline stays
// exercisable in development.
type Service struct {
	files    FileReader
	vision   VisionClient
	archiver Archiver
}

// NewService creates the extraction service. vision and archiver may be nil.
func NewService(files FileReader, vision VisionClient, archiver Archiver) *Service {
	return &Service{files: files, vision: vision, archiver: archiver}
}

// Extract produces raw text for the stored file. One attempt per call; a
// configured extractor that fails returns the error to the caller.
func (s *Service) Extract(ctx context.Context, filePath, contentType string) (string, error) {
	data, err := s.files.Read(filePath)
	if err != nil {
		return "", &ExtractionError{Op: "read_stored_file", Err: err}
	}

	mediaType := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		text, err := DecodeText(data)
		if err != nil {
			return "", &ExtractionError{Op: "decode_text", Err: err}
		}
		return text, nil

	case mediaType == "application/pdf":
		text, err := ExtractPDF(data)
		if err != nil {
			return "", &ExtractionError{Op: "extract_pdf", Err: err}
		}
		return text, nil

	case strings.HasPrefix(mediaType, "image/"):
		return s.extractImage(ctx, filePath, data, mediaType)

	default:
		return "", &ExtractionError{Op: "check_content_type", Err: fmt.Errorf("content type not supported: %s", contentType)}
	}
}

func (s *Service) extractImage(ctx context.Context, filePath string, data []byte, contentType string) (string, error) {
	if s.vision == nil || !s.vision.Configured() {
		log.Printf("vision OCR not configured, returning mock receipt text for %s", filePath)
		return MockReceiptText(), nil
	}

	uploadData, uploadType, err := imageutil.Downscale(data, imageutil.DefaultMaxDimension)
	if err != nil {
		// Undecodable bytes still go to the model as-is; let it try.
		log.Printf("image downscale failed for %s, sending original bytes: %v", filePath, err)
		uploadData, uploadType = data, contentType
	}

	if s.archiver != nil {
		key := filepath.Base(filePath)
		imageURL, archiveErr := s.archiver.Archive(uploadData, key, uploadType)
		if archiveErr == nil {
			text, err := s.vision.ExtractReceiptText(ctx, imageURL)
			if err != nil {
				return "", &ExtractionError{Op: "vision_extract_url", Err: err}
			}
			return text, nil
		}
		log.Printf("archive upload failed for %s, falling back to inline image: %v", filePath, archiveErr)
	}

	text, err := s.vision.ExtractReceiptTextFromBytes(ctx, uploadData, uploadType)
	if err != nil {
		return "", &ExtractionError{Op: "vision_extract_inline", Err: err}
	}
	return text, nil
}
