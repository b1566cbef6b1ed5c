package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/internal/utils/validator"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/storage"
)

// DocumentService is what the handlers need from document.Pipeline.
type DocumentService interface {
	Process(ctx context.Context, path string) (*models.ProcessingResult, error)
	Analyze(ctx context.Context, path string) (*models.Analysis, error)
	Classify(ctx context.Context, path string) (models.ClassificationResult, error)
	Entities(ctx context.Context, text string) ([]models.EntityRecord, error)
}

type DocumentHandler struct {
	service   DocumentService
	validator *validator.DocumentValidator
	uploads   storage.Storage
	logger    logger.Logger
}

type PathRequest struct {
	Path string `json:"path" binding:"required"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type UploadResponse struct {
	File   validator.FileInfo       `json:"file"`
	Result *models.ProcessingResult `json:"result"`
}

func NewDocumentHandler(service DocumentService, v *validator.DocumentValidator, uploads storage.Storage, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:   service,
		validator: v,
		uploads:   uploads,
		logger:    log,
	}
}

func (h *DocumentHandler) bindPath(c *gin.Context) (string, bool) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Document path is required", err)
		return "", false
	}
	return req.Path, true
}

func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	path, ok := h.bindPath(c)
	if !ok {
		return
	}

	result, err := h.service.Process(c.Request.Context(), path)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to process document", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DocumentHandler) AnalyzeDocument(c *gin.Context) {
	path, ok := h.bindPath(c)
	if !ok {
		return
	}

	analysis, err := h.service.Analyze(c.Request.Context(), path)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to analyze document", err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *DocumentHandler) ClassifyDocument(c *gin.Context) {
	path, ok := h.bindPath(c)
	if !ok {
		return
	}

	result, err := h.service.Classify(c.Request.Context(), path)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to classify document", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DocumentHandler) ExtractEntities(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entities, err := h.service.Entities(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to extract entities", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entities": entities})
}

// UploadDocument validates a multipart file, stores it, and processes the stored copy.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}

	validation, err := h.validator.ValidateFile(header)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to validate file", err)
		return
	}
	if err := validation.Err(); err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   err.Error(),
			"message": "File rejected",
			"errors":  validation.Errors,
		})
		return
	}

	result, err := h.storeAndProcess(c.Request.Context(), header)
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to store document", err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{File: validation.FileInfo, Result: result})
}

// BatchUploadItem reports one file of a batch upload.
type BatchUploadItem struct {
	File   validator.FileInfo          `json:"file"`
	Result *models.ProcessingResult    `json:"result,omitempty"`
	Errors []validator.ValidationError `json:"errors,omitempty"`
	Error  string                      `json:"error,omitempty"`
}

// UploadBatch validates every file of a multipart "files" field concurrently,
// then stores and processes the accepted ones. Rejected files are reported
// per item and do not fail the batch.
func (h *DocumentHandler) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		handleError(c, h.logger, http.StatusBadRequest, "No files provided", nil)
		return
	}

	validations, err := h.validator.ValidateFiles(files)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to validate files", err)
		return
	}

	items := make([]BatchUploadItem, len(files))
	accepted := 0
	for i, header := range files {
		items[i].File = validations[i].FileInfo
		if err := validations[i].Err(); err != nil {
			items[i].Errors = validations[i].Errors
			items[i].Error = err.Error()
			continue
		}
		result, err := h.storeAndProcess(c.Request.Context(), header)
		if err != nil {
			h.logger.Warn("Failed to store document",
				logger.String("filename", header.Filename),
				logger.Error(err),
			)
			items[i].Error = err.Error()
			continue
		}
		items[i].Result = result
		accepted++
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("Accepted %d of %d documents", accepted, len(files)),
		"accepted": accepted,
		"items":    items,
	})
}

func (h *DocumentHandler) storeAndProcess(ctx context.Context, header *multipart.FileHeader) (*models.ProcessingResult, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s", uuid.NewString(), filepath.Base(header.Filename))
	stored, err := h.uploads.Store(ctx, f, key)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	return h.service.Process(ctx, stored)
}
