package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/culinamarket/internal/storage"
	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 5 << 20

// UploadImage handles POST /v1/admin/uploads
// Multipart field "file", optional "folder" (recipes | products).
func (h *Handlers) UploadImage(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image must be 5 MB or smaller"})
		return
	}

	// 2. Only images
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image"})
		return
	}

	folder := c.DefaultPostForm("folder", "recipes")
	if !storage.Folders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown upload folder"})
		return
	}

	// 3. Stream it to object storage
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
		return
	}
	defer f.Close()

	url, err := h.Images.Upload(c.Request.Context(), folder, file.Filename, contentType, f)
	if err != nil {
		h.serverError(c, "Failed to upload image", err)
		return
	}

	// 4. Return the public URL
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

type ValidateImageURLInput struct {
	URL string `json:"url" binding:"required"`
}

// ValidateImageURL handles POST /v1/admin/uploads/validate-url
func (h *Handlers) ValidateImageURL(c *gin.Context) {
	var input ValidateImageURLInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	err := h.ImageURLs.Validate(c.Request.Context(), input.URL)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"valid": true})
	case errors.Is(err, storage.ErrInvalidURL):
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "URL is not valid"})
	default:
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "URL does not point to an image"})
	}
}
