package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ashtraymarket/internal/app/market/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Хелперы для создания тестового окружения

func newTestUploadHandler(t *testing.T) (*UploadHandler, string) {
	t.Helper()

	dir := t.TempDir()
	images, err := util.NewImageStore(dir, 1024, []string{"jpg", "jpeg", "png"})
	require.NoError(t, err)

	return NewUploadHandler(images), dir
}

func multipartImageBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

// ==================== UploadImage Handler Tests ====================

func TestUploadHandler_UploadImage_Success(t *testing.T) {
	// Arrange
	handler, dir := newTestUploadHandler(t)

	body, contentType := multipartImageBody(t, "ashtray.png", []byte("png-bytes"))

	router := setupAuthedRouter(http.MethodPost, "/uploads", uuid.New(), handler.UploadImage)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	require.NotEmpty(t, response["image"])
	assert.Equal(t, ".png", filepath.Ext(response["image"]))

	// Файл действительно сохранен под сгенерированным именем
	saved, err := os.ReadFile(filepath.Join(dir, response["image"]))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), saved)
}

func TestUploadHandler_UploadImage_NoFile(t *testing.T) {
	// Arrange
	handler, _ := newTestUploadHandler(t)

	router := setupAuthedRouter(http.MethodPost, "/uploads", uuid.New(), handler.UploadImage)
	req := httptest.NewRequest(http.MethodPost, "/uploads", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandler_UploadImage_BadFormat(t *testing.T) {
	// Arrange
	handler, _ := newTestUploadHandler(t)

	body, contentType := multipartImageBody(t, "payload.exe", []byte("binary"))

	router := setupAuthedRouter(http.MethodPost, "/uploads", uuid.New(), handler.UploadImage)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandler_UploadImage_TooLarge(t *testing.T) {
	// Arrange: лимит тестового хранилища 1 KB
	handler, _ := newTestUploadHandler(t)

	body, contentType := multipartImageBody(t, "huge.jpg", bytes.Repeat([]byte("x"), 2048))

	router := setupAuthedRouter(http.MethodPost, "/uploads", uuid.New(), handler.UploadImage)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadHandler_UploadImage_Unauthenticated(t *testing.T) {
	// Arrange
	handler, _ := newTestUploadHandler(t)

	body, contentType := multipartImageBody(t, "ashtray.png", []byte("png-bytes"))

	router := setupTestRouter(http.MethodPost, "/uploads", handler.UploadImage)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
