package api

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"chatroom-backend/internal/chat"
	"chatroom-backend/internal/middleware"
	"chatroom-backend/internal/models"
	"chatroom-backend/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

// Non-image types we accept. Image types are accepted whenever the stdlib
// can decode their dimensions.
var allowedFileTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

type UploadHandler struct {
	store   *chat.Store
	storage *storage.SupabaseStorage
	config  *UploadConfig
}

type UploadConfig struct {
	FileBucket  string
	ImageBucket string
}

func NewUploadHandler(store *chat.Store, blobStorage *storage.SupabaseStorage, cfg *UploadConfig) *UploadHandler {
	return &UploadHandler{
		store:   store,
		storage: blobStorage,
		config:  cfg,
	}
}

// parseTarget reads the optional message link from the multipart form.
func parseTarget(c *gin.Context) (*models.MessageTarget, bool) {
	kind := c.PostForm("target_kind")
	if kind == "" {
		return nil, true
	}
	id, err := uuid.Parse(c.PostForm("target_id"))
	if err != nil {
		return nil, false
	}
	return &models.MessageTarget{Kind: kind, ID: id}, true
}

// UploadFile stores an upload and records it as either a chat image (with
// pixel dimensions) or a chat file, linked to at most one message.
func (h *UploadHandler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	target, ok := parseTarget(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target_id"})
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	if int64(len(content)) > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	// Trust the bytes, not the declared Content-Type header.
	contentType := mimetype.Detect(content).String()
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}

	uploaderID := middleware.MustUserID(c)
	ctx := c.Request.Context()

	if strings.HasPrefix(contentType, "image/") {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image format"})
			return
		}

		url, err := h.storage.Upload(h.config.ImageBucket, header.Filename, contentType, content)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
			return
		}

		img, err := h.store.CreateImage(ctx, chat.CreateImageParams{
			URL:          url,
			OriginalName: header.Filename,
			FileSize:     int64(len(content)),
			Width:        &cfg.Width,
			Height:       &cfg.Height,
			UploadedBy:   uploaderID,
			Target:       target,
		})
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusCreated, img)
		return
	}

	if !allowedFileTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed: " + contentType})
		return
	}

	url, err := h.storage.Upload(h.config.FileBucket, header.Filename, contentType, content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	f, err := h.store.CreateFile(ctx, chat.CreateFileParams{
		URL:          url,
		OriginalName: header.Filename,
		FileSize:     int64(len(content)),
		FileType:     contentType,
		UploadedBy:   uploaderID,
		Target:       target,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// GetUploads lists the caller's uploads.
func (h *UploadHandler) GetUploads(c *gin.Context) {
	files, images, err := h.store.ListUploads(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "images": images})
}
