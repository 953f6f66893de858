package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itish2003/simplybot/models"
	"github.com/itish2003/simplybot/services"
)

// DocumentController serves document ingestion and upload-directory endpoints.
type DocumentController struct {
	ingestion services.IngestionService
	files     *services.FileActions
	store     services.VectorStore
	maxBytes  int64
}

func NewDocumentController(ingestion services.IngestionService, files *services.FileActions, store services.VectorStore, maxBytes int64) *DocumentController {
	return &DocumentController{
		ingestion: ingestion,
		files:     files,
		store:     store,
		maxBytes:  maxBytes,
	}
}

// UploadDocuments handles POST /upload_documents. Every file is validated
// before any of them is parsed.
func (c *DocumentController) UploadDocuments(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	for _, fh := range headers {
		if err := services.ValidateUpload(fh.Filename, fh.Size, c.maxBytes); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	total := 0
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		n, err := c.ingestion.Ingest(ctx.Request.Context(), fh.Filename, data)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest " + fh.Filename + ": " + err.Error()})
			return
		}
		total += n
	}

	ctx.JSON(http.StatusOK, models.UploadDocumentsResponse{
		Success:       true,
		Message:       fmt.Sprintf("Successfully added %d document fragments", total),
		DocumentCount: total,
	})
}

// DocumentsInfo handles GET /documents/info.
func (c *DocumentController) DocumentsInfo(ctx *gin.Context) {
	info, err := c.store.Info(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrCollectionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read collection info: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, info)
}

// UploadFile handles POST /files/upload. The file is stored, not ingested.
func (c *DocumentController) UploadFile(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing file: " + err.Error()})
		return
	}
	if err := services.ValidateUpload(fh.Filename, fh.Size, c.maxBytes); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := readUpload(fh)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := c.files.Save(fh.Filename, data)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, models.FileUploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		File:    *info,
	})
}

// ListFiles handles GET /files.
func (c *DocumentController) ListFiles(ctx *gin.Context) {
	list, err := c.files.List()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list files: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// DeleteFile handles DELETE /files/:filename.
func (c *DocumentController) DeleteFile(ctx *gin.Context) {
	name := ctx.Param("filename")
	if err := c.files.Delete(name); err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "File " + name + " deleted"})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", fh.Filename, err)
	}
	return data, nil
}
