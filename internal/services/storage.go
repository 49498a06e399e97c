package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

var pdfMagic = []byte("%PDF-")

// StoredCV describes a CV written to the upload directory.
type StoredCV struct {
	FileName string
	Path     string
	Size     int64
}

type StorageService interface {
	SaveCV(file *multipart.FileHeader, resID int64) (*StoredCV, error)
	Path(fileName string) string
	Delete(fileName string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
	logger     *zap.Logger
}

func NewStorageService(uploadPath string, logger *zap.Logger) StorageService {
	return &storageService{
		uploadPath: uploadPath,
		logger:     logger.Named("storage"),
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// SaveCV writes the upload as "<res_id>_<uuid>.pdf", so batch indexing over
// the upload directory can recover the resource id from the file name.
func (s *storageService) SaveCV(file *multipart.FileHeader, resID int64) (*StoredCV, error) {
	if resID <= 0 {
		return nil, apperrors.Validation(apperrors.CodeInvalidInput, "res_id must be positive, got %d", resID)
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		return nil, apperrors.Validation(apperrors.CodeInvalidInput, "invalid file extension: %s", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(src, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return nil, apperrors.Validation(apperrors.CodeInvalidInput, "%s is not a PDF document", file.Filename)
	}

	name := fmt.Sprintf("%d_%s.pdf", resID, uuid.New().String())
	stored := &StoredCV{FileName: name, Path: s.Path(name)}

	dst, err := os.Create(stored.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), src))
	if err != nil {
		_ = os.Remove(stored.Path)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	stored.Size = n

	s.logger.Debug("cv stored", zap.String("file", name), zap.Int64("bytes", n))
	return stored, nil
}

func (s *storageService) Path(fileName string) string {
	return filepath.Join(s.uploadPath, filepath.Base(fileName))
}

func (s *storageService) Delete(fileName string) error {
	if err := os.Remove(s.Path(fileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
