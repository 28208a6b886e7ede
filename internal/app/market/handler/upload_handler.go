package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ashtraymarket/internal/app/market/util"
)

// UploadHandler обрабатывает загрузку изображений товаров и магазинов.
// Возвращает ссылку на файл, которая затем указывается в полях image
type UploadHandler struct {
	images *util.ImageStore
}

// NewUploadHandler создает новый обработчик загрузки изображений
func NewUploadHandler(images *util.ImageStore) *UploadHandler {
	return &UploadHandler{
		images: images,
	}
}

// UploadImage обрабатывает POST /uploads
func (h *UploadHandler) UploadImage(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Image file required")
		return
	}

	// Размер и расширение проверяются до чтения содержимого
	if err := h.images.Validate(fileHeader.Filename, fileHeader.Size); err != nil {
		h.respondImageError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read image file")
		return
	}

	ref, err := h.images.Store(fileHeader.Filename, data)
	if err != nil {
		h.respondImageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": ref})
}

func (h *UploadHandler) respondImageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrImageTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, util.ErrBadImageFormat):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "Failed to store image")
	}
}
