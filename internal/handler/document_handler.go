package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/receipthealth/receipt-processor-service/internal/model"
	"github.com/receipthealth/receipt-processor-service/internal/repository"
	"github.com/receipthealth/receipt-processor-service/internal/service"
)

// DocumentHandler handles HTTP requests for document upload and status polling
type DocumentHandler struct {
	processingService service.ProcessingService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(processingService service.ProcessingService) *DocumentHandler {
	return &DocumentHandler{
		processingService: processingService,
	}
}

// Upload handles the POST /v1/documents/upload endpoint
// @Summary Upload receipt files
// @Description Accepts one or more receipt files and schedules background processing. Each file gets its own result: processing, duplicate, or error.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Receipt files (repeatable)"
// @Success 202 {object} model.UploadResponse "Per-file upload results"
// @Failure 400 {object} model.ErrorResponse "No files provided"
// @Router /v1/documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondBadRequest(c, ErrFileUpload, newErrorDetail("files", "multipart form data is required"))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		respondBadRequest(c, ErrFileUpload, newErrorDetail("files", "at least one file is required"))
		return
	}

	response := model.UploadResponse{Results: make([]model.UploadFileResult, 0, len(files))}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			logError(c, "open_upload_file", err)
			response.Results = append(response.Results, model.UploadFileResult{
				FileName: header.Filename,
				Status:   service.UploadStatusError,
				Message:  "failed to read file",
			})
			continue
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			logError(c, "read_upload_file", err)
			response.Results = append(response.Results, model.UploadFileResult{
				FileName: header.Filename,
				Status:   service.UploadStatusError,
				Message:  "failed to read file",
			})
			continue
		}

		result := h.processingService.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), data)
		response.Results = append(response.Results, model.UploadFileResult{
			DocumentID: result.DocumentID,
			FileName:   result.FileName,
			Status:     result.Status,
			Message:    result.Message,
		})
	}

	respondAccepted(c, response)
}

// ListDocuments handles the GET /v1/documents endpoint
// @Summary List uploaded documents
// @Description Returns all uploaded documents with their processing status, newest first
// @Tags documents
// @Produce json
// @Success 200 {object} model.DocumentsListResponse "Documents"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	documents, err := h.processingService.ListDocuments(c.Request.Context())
	if err != nil {
		logError(c, "list_documents", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	response := model.DocumentsListResponse{Data: make([]model.DocumentResponse, 0, len(documents))}
	for i := range documents {
		response.Data = append(response.Data, model.DocumentFromDomain(&documents[i]))
	}
	respondOK(c, response)
}

// GetStatus handles the GET /v1/documents/:documentId/status endpoint
// @Summary Poll document processing status
// @Description Returns the current processing phase for a document, or its terminal outcome
// @Tags documents
// @Produce json
// @Param documentId path string true "Document ID"
// @Success 200 {object} model.StatusResponse "Current status"
// @Failure 404 {object} model.ErrorResponse "Document not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/documents/{documentId}/status [get]
func (h *DocumentHandler) GetStatus(c *gin.Context) {
	documentID, err := getPathParam(c, "documentId")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	update, err := h.processingService.GetStatus(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		logError(c, "get_status", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, model.StatusFromUpdate(documentID, update))
}
