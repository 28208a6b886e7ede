package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrImageTooLarge  = errors.New("image file too large")
	ErrBadImageFormat = errors.New("unsupported image format")
)

// ImageStore проверяет и сохраняет изображения на диск
// Ограничения: размер не более maxSize байт, расширения из allowedExts
type ImageStore struct {
	dir         string
	maxSize     int64
	allowedExts map[string]struct{}
}

func NewImageStore(dir string, maxSize int64, allowedExts []string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image storage dir: %w", err)
	}

	exts := make(map[string]struct{}, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(e)] = struct{}{}
	}

	return &ImageStore{
		dir:         dir,
		maxSize:     maxSize,
		allowedExts: exts,
	}, nil
}

// Validate проверяет имя файла и размер до сохранения
func (s *ImageStore) Validate(filename string, size int64) error {
	if size > s.maxSize {
		return ErrImageTooLarge
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if _, ok := s.allowedExts[ext]; !ok {
		return ErrBadImageFormat
	}

	return nil
}

// Store сохраняет изображение и возвращает ссылку на него
// Имя файла генерируется, чтобы исключить коллизии и path traversal
func (s *ImageStore) Store(filename string, data []byte) (string, error) {
	if err := s.Validate(filename, int64(len(data))); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	ref := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return ref, nil
}
